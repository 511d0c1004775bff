package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/playgeo/geohunt/internal/game"
)

type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
}

type StatsResponse struct {
	TotalSubmissions int      `json:"totalSubmissions"`
	CorrectCount     int      `json:"correctCount"`
	Wins             int      `json:"wins"`
	BestDistance     *float64 `json:"bestDistance"`
}

type SubmissionResponse struct {
	ID          string    `json:"id"`
	PhaseID     string    `json:"phaseId"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Distance    float64   `json:"distance"`
	IsCorrect   bool      `json:"isCorrect"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func toSubmissionResponse(s game.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          s.ID,
		PhaseID:     s.PhaseID,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Distance:    s.Distance,
		IsCorrect:   s.IsCorrect,
		SubmittedAt: s.SubmittedAt,
	}
}

func handleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
	}
}

func handleUpdateProfile(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if err := readJSON(r, &req); err != nil || req.Nickname == "" {
			writeError(w, http.StatusBadRequest, kindValidation, "nickname is required")
			return
		}

		u := currentUser(r)
		if err := store.UpdateNickname(r.Context(), u.ID, req.Nickname); err != nil {
			logger.Error("updating nickname", "user_id", u.ID, "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not update profile")
			return
		}

		u.Nickname = req.Nickname
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func handleUserStats(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.UserStats(r.Context(), currentUser(r).ID)
		if err != nil {
			logger.Error("loading user stats", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not load stats")
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{
			TotalSubmissions: stats.TotalSubmissions,
			CorrectCount:     stats.CorrectCount,
			Wins:             stats.Wins,
			BestDistance:     stats.BestDistance,
		})
	}
}

func handleUserSubmissions(logger *slog.Logger, store game.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := store.ListSubmissionsByUser(r.Context(), currentUser(r).ID)
		if err != nil {
			logger.Error("loading submissions", "error", err)
			writeError(w, http.StatusInternalServerError, kindInternal, "could not load submissions")
			return
		}

		out := make([]SubmissionResponse, 0, len(subs))
		for _, s := range subs {
			out = append(out, toSubmissionResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
