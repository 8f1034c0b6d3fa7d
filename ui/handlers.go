package ui

import (
	"encoding/json"
	"errors"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
	apperrors "psyphy/internal/errors"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Participant string `json:"participant"`
}

func (a *App) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}
	if req.Participant == "" {
		writeError(w, apperrors.InvalidArgument("participant is required"))
		return
	}

	session, err := a.ledger.CreateSession(r.Context(), req.Participant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// sessionIDParam parses the {id} route parameter.
func sessionIDParam(r *http.Request) (core.SessionID, error) {
	id, err := core.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		return "", apperrors.InvalidArgument(err.Error())
	}
	return id, nil
}

func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := a.ledger.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *App) handleAppendTrial(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var obs psychometric.TrialObservation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		writeError(w, apperrors.InvalidArgument("invalid request body"))
		return
	}
	if err := obs.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := a.ledger.AppendTrial(r.Context(), id, obs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, obs)
}

func (a *App) handleListTrials(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	trials, err := a.ledger.ListTrials(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trials)
}

func (a *App) handleEstimate(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	estimate, err := a.analysis.EstimateThreshold(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

func (a *App) handleSigma(w http.ResponseWriter, r *http.Request) {
	intensity, err := queryFloat(r, "intensity")
	if err != nil {
		writeError(w, err)
		return
	}

	clamped, sigma := a.stimulus.SigmaFor(intensity)
	writeJSON(w, http.StatusOK, map[string]float64{
		"intensity": clamped.Float(),
		"sigma":     sigma,
	})
}

func (a *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	intensity, err := queryFloat(r, "intensity")
	if err != nil {
		writeError(w, err)
		return
	}

	stim, err := a.stimulus.RenderPreview(intensity)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, stim.Frame.RGBA()); err != nil {
		log.Printf("[UI] preview encode failed: %v", err)
	}
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, apperrors.InvalidArgument(key + " query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.InvalidArgument(key + " must be numeric")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[UI] response encode failed: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses: bad input is 400,
// a failed estimation on valid input is 422, unknown resources are 404.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound) || apperrors.GetCode(err) == apperrors.CodeNotFound:
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidArgument) ||
		apperrors.GetCode(err) == apperrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case core.IsEstimationError(err):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}
