package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playgeo/geohunt/internal/game"
)

type SubmitRequest struct {
	PhaseID string  `json:"phaseId"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type SubmitResponse struct {
	IsCorrect      bool      `json:"isCorrect"`
	IsFirstCorrect bool      `json:"isFirstCorrect"`
	Distance       float64   `json:"distance"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

func handleSubmit(logger *slog.Logger, submitter *game.Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, kindValidation, "invalid request body")
			return
		}
		if req.PhaseID == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "phaseId is required")
			return
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			writeError(w, http.StatusBadRequest, kindValidation,
				"lat must be in [-90, 90] and lng in [-180, 180]")
			return
		}

		res, err := submitter.Submit(r.Context(), currentUser(r), req.PhaseID, req.Lat, req.Lng)
		if err != nil {
			var rle *game.RateLimitError
			switch {
			case errors.Is(err, game.ErrPhaseNotFound):
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
			case errors.Is(err, game.ErrPhaseNotActive):
				writeError(w, http.StatusNotFound, kindNotFound, "phase is not active")
			case errors.As(err, &rle):
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(rle.NextWindowAt).Seconds())))
				writeError(w, http.StatusTooManyRequests, kindRateLimited, rle.Reason)
			case errors.Is(err, game.ErrBadDistance):
				writeError(w, http.StatusBadRequest, kindValidation, "could not score the coordinate")
			default:
				logger.Error("submission failed", "error", err)
				writeError(w, http.StatusInternalServerError, kindInternal, "submission failed")
			}
			return
		}

		writeJSON(w, http.StatusOK, SubmitResponse{
			IsCorrect:      res.IsCorrect,
			IsFirstCorrect: res.IsFirstCorrect,
			Distance:       res.Distance,
			SubmittedAt:    res.Submission.SubmittedAt,
		})
	}
}
