package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/playgeo/geohunt/internal/game"
	"github.com/playgeo/geohunt/internal/search"
)

// PhaseResponse is the public projection of a phase: the hint, never the
// coordinate.
type PhaseResponse struct {
	ID        string    `json:"id"`
	HintText  string    `json:"hintText"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPhaseResponse(p game.Phase) PhaseResponse {
	return PhaseResponse{
		ID:        p.ID,
		HintText:  p.HintText,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

// handleCurrentPhase serves the active phase, lazily activating one from the
// pool (or creating one) when none is active.
func handleCurrentPhase(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := lc.Active(r.Context())
		if err != nil {
			if errors.Is(err, search.ErrNoCoordinateFound) {
				writeError(w, http.StatusServiceUnavailable, kindSearchExhausted,
					"no phase is available right now, try again shortly")
				return
			}
			logger.Error("resolving active phase", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not load the current phase")
			return
		}
		writeJSON(w, http.StatusOK, toPhaseResponse(p))
	}
}
