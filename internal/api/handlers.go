package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"BuffonBet/internal/model"
	"BuffonBet/internal/session"
	"BuffonBet/internal/wager"
)

// maxAdvance bounds a single /advance call.
const maxAdvance = 1_000_000

// Driver runs the background simulation and reacts to resolutions.
type Driver interface {
	Resume()
	Pause()
	Running() bool
	BatchSize() int
	SetBatchSize(n int) error
	OnResolved(res model.WagerResult)
}

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	session             *session.Session
	driver              Driver
	defaultTargetTrials int64
}

// NewHandler creates a new handler. driver may be nil when nothing runs in the background.
func NewHandler(sess *session.Session, driver Driver, defaultTargetTrials int64) *Handler {
	return &Handler{session: sess, driver: driver, defaultTargetTrials: defaultTargetTrials}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type placeRequest struct {
	Direction    string  `json:"direction"`
	Stake        float64 `json:"stake"`
	TargetTrials int64   `json:"target_trials"`
}

type advanceRequest struct {
	Trials int `json:"trials"`
}

type needleRequest struct {
	Length float64 `json:"length"`
}

type speedRequest struct {
	BatchSize int `json:"batch_size"`
}

type estimateResponse struct {
	model.Estimate
	AccuracyRank int     `json:"accuracy_rank"`
	NeedleLength float64 `json:"needle_length"`
	LineSpacing  float64 `json:"line_spacing"`
	Running      bool    `json:"running"`
	BatchSize    int     `json:"batch_size,omitempty"`
}

type wagerResponse struct {
	Status model.WagerStatus  `json:"status"`
	Wager  *model.Wager       `json:"wager,omitempty"`
	Result *model.WagerResult `json:"result,omitempty"`
}

// HealthCheck returns the service status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "buffonbet",
	})
}

// GetEstimate returns the running π estimate.
func (h *Handler) GetEstimate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.estimate())
}

func (h *Handler) estimate() estimateResponse {
	est := h.session.GetEstimate()
	L, D := h.session.Geometry()
	resp := estimateResponse{Estimate: est, NeedleLength: L, LineSpacing: D}
	if est.Valid {
		resp.AccuracyRank = h.session.GetAccuracyRank(est.PiEstimate)
	}
	if h.driver != nil {
		resp.Running = h.driver.Running()
		resp.BatchSize = h.driver.BatchSize()
	}
	return resp
}

// Advance drops a number of needles and checks the wager.
// Body: {"trials": n}
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Trials <= 0 || req.Trials > maxAdvance {
		respondError(w, http.StatusBadRequest, "trials must be in [1, 1000000]", nil)
		return
	}
	st, res := h.session.TickWager(req.Trials)
	if res != nil {
		h.resolved(*res)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"estimate": h.estimate(),
		"wager":    st,
		"result":   res,
	})
}

// Reset zeroes the estimator.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.driver != nil {
		h.driver.Pause()
	}
	h.session.ResetEstimator()
	respondJSON(w, http.StatusOK, h.estimate())
}

// Start resumes the background simulation.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if h.driver == nil {
		respondError(w, http.StatusConflict, "no background driver", nil)
		return
	}
	h.driver.Resume()
	respondJSON(w, http.StatusOK, h.estimate())
}

// Pause stops the background simulation.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if h.driver == nil {
		respondError(w, http.StatusConflict, "no background driver", nil)
		return
	}
	h.driver.Pause()
	respondJSON(w, http.StatusOK, h.estimate())
}

// GetQuote prices a convergence bet.
// Query params: trials, digits, edge
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	trials := parseInt64Param(r, "trials", h.defaultTargetTrials)
	digits := int(parseInt64Param(r, "digits", int64(h.session.TargetDigits())))
	edge := h.session.HouseEdge()
	if v := r.URL.Query().Get("edge"); v != "" {
		e, err := strconv.ParseFloat(v, 64)
		if err != nil || e < 0 || e >= 1 {
			respondError(w, http.StatusBadRequest, "edge must be in [0, 1)", err)
			return
		}
		edge = e
	}
	respondJSON(w, http.StatusOK, h.session.GetConvergenceQuote(trials, digits, edge))
}

// GetFund returns the wallet.
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Fund())
}

// SetNeedleLength changes L and starts a fresh run.
// Body: {"length": L}
func (h *Handler) SetNeedleLength(w http.ResponseWriter, r *http.Request) {
	var req needleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.session.SetNeedleLength(req.Length); err != nil {
		respondWagerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.estimate())
}

// GetWager returns the wager slot.
func (h *Handler) GetWager(w http.ResponseWriter, r *http.Request) {
	resp := wagerResponse{Status: h.session.GetWagerStatus()}
	if wg, ok := h.session.ActiveWager(); ok {
		resp.Wager = &wg
	}
	if res, ok := h.session.LastResult(); ok {
		resp.Result = &res
	}
	respondJSON(w, http.StatusOK, resp)
}

// PlaceWager opens a wager and starts the simulation.
// Body: {"direction": "YES"|"NO", "stake": 10, "target_trials": 500}
func (h *Handler) PlaceWager(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	dir, ok := model.ParseDirection(req.Direction)
	if !ok {
		respondError(w, http.StatusBadRequest, "direction must be YES or NO", nil)
		return
	}
	if req.TargetTrials == 0 {
		req.TargetTrials = h.defaultTargetTrials
	}

	wg, err := h.session.PlaceWager(dir, req.Stake, req.TargetTrials)
	if err != nil {
		respondWagerError(w, err)
		return
	}
	if h.driver != nil {
		h.driver.Resume()
	}
	respondJSON(w, http.StatusCreated, wg)
}

// CancelWager refunds the running wager.
func (h *Handler) CancelWager(w http.ResponseWriter, r *http.Request) {
	refund, err := h.session.CancelWager()
	if err != nil {
		respondWagerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"refund": refund,
		"fund":   h.session.Fund(),
	})
}

// ResolveWager settles the running wager now.
func (h *Handler) ResolveWager(w http.ResponseWriter, r *http.Request) {
	res, fresh, err := h.session.SettleWager()
	if err != nil {
		respondWagerError(w, err)
		return
	}
	if fresh {
		h.resolved(res)
	}
	respondJSON(w, http.StatusOK, res)
}

// SetSpeed changes how many needles the background driver drops per tick.
// Body: {"batch_size": n}
func (h *Handler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	if h.driver == nil {
		respondError(w, http.StatusConflict, "no background driver", nil)
		return
	}
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.driver.SetBatchSize(req.BatchSize); err != nil {
		respondWagerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.estimate())
}

// resolved hands a resolution made over HTTP to the driver, which pauses
// and reports it the same way a background tick does.
func (h *Handler) resolved(res model.WagerResult) {
	if h.driver != nil {
		h.driver.OnResolved(res)
	}
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wager.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, wager.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, wager.ErrAlreadyActive), errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, wager.ErrNoActiveWager):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondWagerError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error(), nil)
}

func parseInt64Param(r *http.Request, param string, defaultValue int64) int64 {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		log.Printf("[WARN] %s: %v", message, err)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
