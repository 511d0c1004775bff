package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playgeo/geohunt/internal/game"
	"github.com/playgeo/geohunt/internal/hint"
	"github.com/playgeo/geohunt/internal/oracle"
	"github.com/playgeo/geohunt/internal/search"
)

// AdminPhaseResponse is the privileged projection: it includes the secret
// coordinate.
type AdminPhaseResponse struct {
	ID           string     `json:"id"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	StreetViewID string     `json:"streetViewId,omitempty"`
	HintText     string     `json:"hintText"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	SolvedAt     *time.Time `json:"solvedAt,omitempty"`
}

type PreparedPhaseResponse struct {
	ID          string    `json:"id"`
	PhaseID     string    `json:"phaseId"`
	ApprovedBy  string    `json:"approvedBy"`
	ApprovedAt  time.Time `json:"approvedAt"`
	PhaseStatus string    `json:"phaseStatus"`
	HintText    string    `json:"hintText"`
}

type HintVersionResponse struct {
	ID        string    `json:"id"`
	PhaseID   string    `json:"phaseId"`
	HintType  string    `json:"hintType"`
	HintText  string    `json:"hintText"`
	Version   string    `json:"version"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type LocationResponse struct {
	Country            string   `json:"country,omitempty"`
	AdministrativeArea string   `json:"administrativeArea,omitempty"`
	Locality           string   `json:"locality,omitempty"`
	FormattedAddress   string   `json:"formattedAddress,omitempty"`
	PlaceTypes         []string `json:"placeTypes,omitempty"`
	Elevation          *float64 `json:"elevation,omitempty"`
}

type PhasePreviewResponse struct {
	Phase      AdminPhaseResponse   `json:"phase"`
	Location   *LocationResponse    `json:"location,omitempty"`
	LatestHint *HintVersionResponse `json:"latestHint,omitempty"`
}

type HistoryResponse struct {
	ID           string    `json:"id"`
	PhaseID      string    `json:"phaseId"`
	WinnerID     string    `json:"winnerId"`
	WinnerName   string    `json:"winnerName"`
	SubmittedLat float64   `json:"submittedLat"`
	SubmittedLng float64   `json:"submittedLng"`
	SolvedAt     time.Time `json:"solvedAt"`
}

type RegenerateHintRequest struct {
	HintType string `json:"hintType"`
}

func toAdminPhaseResponse(p game.Phase) AdminPhaseResponse {
	return AdminPhaseResponse{
		ID:           p.ID,
		Lat:          p.Lat,
		Lng:          p.Lng,
		StreetViewID: p.StreetViewID,
		HintText:     p.HintText,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		SolvedAt:     p.SolvedAt,
	}
}

func toHintVersionResponse(hv game.HintVersion) HintVersionResponse {
	return HintVersionResponse{
		ID:        hv.ID,
		PhaseID:   hv.PhaseID,
		HintType:  hv.HintType,
		HintText:  hv.HintText,
		Version:   hv.Version,
		Prompt:    hv.Prompt,
		CreatedAt: hv.CreatedAt,
	}
}

func toLocationResponse(info *oracle.LocationInfo) *LocationResponse {
	if info == nil {
		return nil
	}
	return &LocationResponse{
		Country:            info.Country,
		AdministrativeArea: info.AdministrativeArea,
		Locality:           info.Locality,
		FormattedAddress:   info.FormattedAddress,
		PlaceTypes:         info.PlaceTypes,
		Elevation:          info.Elevation,
	}
}

// handleAdminCreatePhase runs the full pipeline: coordinate search, hint
// generation, persistence.
func handleAdminCreatePhase(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := lc.CreatePhase(r.Context())
		if err != nil {
			switch {
			case oracle.IsFatal(err):
				writeError(w, http.StatusBadGateway, kindOracleFailure,
					"the location provider rejected our requests")
			case errors.Is(err, search.ErrNoCoordinateFound):
				writeError(w, http.StatusServiceUnavailable, kindSearchExhausted,
					"no playable coordinate found, retry the creation")
			default:
				logger.Error("creating phase", "error", err)
				writeError(w, http.StatusInternalServerError, kindInternal, "phase creation failed")
			}
			return
		}
		writeJSON(w, http.StatusCreated, toAdminPhaseResponse(p))
	}
}

func handleAdminListPhases(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phases, err := store.ListPhases(r.Context())
		if err != nil {
			logger.Error("listing phases", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not list phases")
			return
		}

		out := make([]AdminPhaseResponse, 0, len(phases))
		for _, p := range phases {
			out = append(out, toAdminPhaseResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminDeletePhase(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeletePhase(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
				return
			}
			logger.Error("deleting phase", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not delete phase")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "phase deleted"})
	}
}

func handleAdminApprovePhase(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pp, err := lc.Approve(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID)
		if err != nil {
			if errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
				return
			}
			writeError(w, http.StatusConflict, kindConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, PreparedPhaseResponse{
			ID:          pp.ID,
			PhaseID:     pp.PhaseID,
			ApprovedBy:  pp.ApprovedBy,
			ApprovedAt:  pp.ApprovedAt,
			PhaseStatus: string(game.StatusPrepared),
		})
	}
}

func handleAdminListPrepared(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pool, err := store.ListPreparedPhases(r.Context())
		if err != nil {
			logger.Error("listing prepared phases", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not list prepared phases")
			return
		}

		out := make([]PreparedPhaseResponse, 0, len(pool))
		for _, pp := range pool {
			out = append(out, PreparedPhaseResponse{
				ID:          pp.ID,
				PhaseID:     pp.PhaseID,
				ApprovedBy:  pp.ApprovedBy,
				ApprovedAt:  pp.ApprovedAt,
				PhaseStatus: string(pp.PhaseStatus),
				HintText:    pp.HintText,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminPreviewPhase(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pv, err := lc.PreviewPhase(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
				return
			}
			logger.Error("previewing phase", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not preview phase")
			return
		}

		resp := PhasePreviewResponse{
			Phase:    toAdminPhaseResponse(pv.Phase),
			Location: toLocationResponse(pv.Location),
		}
		if pv.LatestHint != nil {
			hv := toHintVersionResponse(*pv.LatestHint)
			resp.LatestHint = &hv
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdminActivatePhase(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := lc.Activate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
				return
			}
			logger.Error("activating phase", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not activate phase")
			return
		}
		writeJSON(w, http.StatusOK, toAdminPhaseResponse(p))
	}
}

func handleAdminRegenerateHint(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Body is optional; an absent hintType means pick one at random.
		var req RegenerateHintRequest
		_ = readJSON(r, &req)

		t := hint.Type(req.HintType)
		if req.HintType == "" {
			t = hint.RandomType()
		} else if !t.Valid() {
			writeError(w, http.StatusBadRequest, kindValidation, "unknown hint type")
			return
		}

		hv, err := lc.RegenerateHint(r.Context(), chi.URLParam(r, "id"), t)
		if err != nil {
			if errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "phase not found")
				return
			}
			logger.Error("regenerating hint", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not regenerate hint")
			return
		}
		writeJSON(w, http.StatusCreated, toHintVersionResponse(hv))
	}
}

func handleAdminListHintVersions(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		versions, err := store.ListHintVersions(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			logger.Error("listing hint versions", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not list hint versions")
			return
		}

		out := make([]HintVersionResponse, 0, len(versions))
		for _, hv := range versions {
			out = append(out, toHintVersionResponse(hv))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminUseHintVersion(logger *slog.Logger, lc *game.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := lc.UseHintVersion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "versionId"))
		if err != nil {
			if errors.Is(err, game.ErrNotFound) || errors.Is(err, game.ErrPhaseNotFound) {
				writeError(w, http.StatusNotFound, kindNotFound, "hint version not found")
				return
			}
			logger.Error("switching hint version", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not switch hint version")
			return
		}
		writeJSON(w, http.StatusOK, toAdminPhaseResponse(p))
	}
}

func handleAdminListSubmissions(logger *slog.Logger, store game.Store) http.HandlerFunc {
	const limit = 200

	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := store.ListSubmissions(r.Context(), limit)
		if err != nil {
			logger.Error("listing submissions", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not list submissions")
			return
		}

		out := make([]SubmissionResponse, 0, len(subs))
		for _, s := range subs {
			out = append(out, toSubmissionResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleAdminListHistories(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		histories, err := store.ListHistories(r.Context())
		if err != nil {
			logger.Error("listing histories", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not list histories")
			return
		}

		out := make([]HistoryResponse, 0, len(histories))
		for _, h := range histories {
			out = append(out, HistoryResponse{
				ID:           h.ID,
				PhaseID:      h.PhaseID,
				WinnerID:     h.WinnerID,
				WinnerName:   h.WinnerName,
				SubmittedLat: h.SubmittedLat,
				SubmittedLng: h.SubmittedLng,
				SolvedAt:     h.SolvedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
