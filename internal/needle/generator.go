package needle

import (
	"math"

	"BuffonBet/internal/model"
)

// Generator drops needles onto a field of vertical lines spaced D apart.
// Not safe for concurrent use.
type Generator struct {
	Source     Source
	FieldWidth float64 // width the needle centres are drawn from; 0 means 8 line spacings
}

// NewGenerator creates a Generator. A nil source falls back to the system source.
func NewGenerator(src Source, fieldWidth float64) *Generator {
	if src == nil {
		src = NewSystemSource()
	}
	return &Generator{Source: src, FieldWidth: fieldWidth}
}

// Generate draws a uniform centre and a uniform angle in [0, π) and classifies the drop.
func (g *Generator) Generate(needleLength, lineSpacing float64) model.Trial {
	width := g.FieldWidth
	if width <= 0 {
		width = 8 * lineSpacing
	}
	x := g.Source.Float64() * width
	angle := g.Source.Float64() * math.Pi
	return model.Trial{
		CenterX: x,
		Angle:   angle,
		Crossed: Crosses(x, angle, needleLength, lineSpacing),
	}
}

// Crosses reports whether a needle centred at x crosses a line.
// Only the projection of the half-needle perpendicular to the lines matters:
// it crosses iff (L/2)|sin θ| >= distance from x to the nearest line.
func Crosses(x, angle, needleLength, lineSpacing float64) bool {
	if lineSpacing <= 0 || needleLength <= 0 {
		return false
	}
	mod := math.Mod(x, lineSpacing)
	if mod < 0 {
		mod += lineSpacing
	}
	distance := math.Min(mod, lineSpacing-mod)
	projection := needleLength / 2 * math.Abs(math.Sin(angle))
	return projection >= distance
}

// CrossingProbability is the classical Buffon probability 2L/(πD), valid for L <= D.
func CrossingProbability(needleLength, lineSpacing float64) float64 {
	return 2 * needleLength / (math.Pi * lineSpacing)
}

// Endpoints returns the needle ends for renderers, with the centre on y = 0.
func Endpoints(t model.Trial, needleLength float64) (x1, y1, x2, y2 float64) {
	half := needleLength / 2
	dx := half * math.Cos(t.Angle)
	dy := half * math.Sin(t.Angle)
	return t.CenterX - dx, -dy, t.CenterX + dx, dy
}
