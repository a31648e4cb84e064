package model

// Trial is a single needle drop.
type Trial struct {
	CenterX float64 `json:"center_x"` // position across the lines, rendering only
	Angle   float64 `json:"angle"`    // radians in [0, π)
	Crossed bool    `json:"crossed"`
}

// Estimate is the derived view of the estimator counters.
// Valid is false until the first crossing; PiEstimate and ErrorPercent are 0 then.
type Estimate struct {
	Trials       int64   `json:"trials"`
	Crossings    int64   `json:"crossings"`
	PiEstimate   float64 `json:"pi_estimate"`
	ErrorPercent float64 `json:"error_percent"`
	Valid        bool    `json:"valid"`
}
