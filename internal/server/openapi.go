package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the GeoHunt location-guessing game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/phases/current
	getCurrent, _ := r.NewOperationContext(http.MethodGet, "/api/phases/current")
	getCurrent.SetSummary("Current phase")
	getCurrent.SetDescription("Returns the active phase's hint. Activates the next prepared phase when none is active.")
	getCurrent.AddRespStructure(PhaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCurrent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getCurrent)

	// GET /api/phases/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/phases/events")
	getEvents.SetSummary("Phase event stream")
	getEvents.SetDescription("Server-Sent Events stream of phase activations and solves.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/phases/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/phases/submit")
	postSubmit.SetSummary("Submit a guess")
	postSubmit.SetDescription("Scores a coordinate guess against the phase. Requires Bearer token.")
	postSubmit.AddReqStructure(SubmitRequest{})
	postSubmit.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postSubmit)

	// POST /api/auth/signup
	postSignup, _ := r.NewOperationContext(http.MethodPost, "/api/auth/signup")
	postSignup.SetSummary("Sign up")
	postSignup.SetDescription("Registers an email/password account and returns a token pair.")
	postSignup.AddReqStructure(SignupRequest{})
	postSignup.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSignup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSignup)

	// POST /api/auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	postLogin.SetSummary("Log in")
	postLogin.SetDescription("Authenticates with email and password. Rate limited per email and IP.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postLogin)

	// POST /api/auth/refresh
	postRefresh, _ := r.NewOperationContext(http.MethodPost, "/api/auth/refresh")
	postRefresh.SetSummary("Refresh tokens")
	postRefresh.SetDescription("Rotates a refresh token into a new token pair.")
	postRefresh.AddReqStructure(RefreshRequest{})
	postRefresh.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRefresh.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRefresh)

	// POST /api/auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	postLogout.SetSummary("Log out")
	postLogout.SetDescription("Revokes the refresh token.")
	postLogout.AddReqStructure(RefreshRequest{})
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	getMe.SetSummary("Current user")
	getMe.SetDescription("Returns the authenticated account. Requires Bearer token.")
	getMe.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/users/profile
	getProfile, _ := r.NewOperationContext(http.MethodGet, "/api/users/profile")
	getProfile.SetSummary("Profile")
	getProfile.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProfile)

	// PATCH /api/users/profile
	patchProfile, _ := r.NewOperationContext(http.MethodPatch, "/api/users/profile")
	patchProfile.SetSummary("Update profile")
	patchProfile.SetDescription("Updates the nickname.")
	patchProfile.AddReqStructure(UpdateProfileRequest{})
	patchProfile.AddRespStructure(UserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	patchProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(patchProfile)

	// GET /api/users/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/users/stats")
	getStats.SetSummary("Player stats")
	getStats.AddRespStructure(StatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getStats)

	// GET /api/users/submissions
	getSubs, _ := r.NewOperationContext(http.MethodGet, "/api/users/submissions")
	getSubs.SetSummary("Own submissions")
	getSubs.AddRespStructure([]SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSubs.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSubs)

	// POST /api/admin/phases
	createPhase, _ := r.NewOperationContext(http.MethodPost, "/api/admin/phases")
	createPhase.SetSummary("Create phase")
	createPhase.SetDescription("Searches for a playable coordinate and generates a hint. Requires admin role.")
	createPhase.AddRespStructure(AdminPhaseResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	createPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(createPhase)

	// GET /api/admin/phases
	listPhases, _ := r.NewOperationContext(http.MethodGet, "/api/admin/phases")
	listPhases.SetSummary("List phases")
	listPhases.AddRespStructure([]AdminPhaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPhases)

	// GET /api/admin/phases/prepared
	listPrepared, _ := r.NewOperationContext(http.MethodGet, "/api/admin/phases/prepared")
	listPrepared.SetSummary("List approval pool")
	listPrepared.AddRespStructure([]PreparedPhaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPrepared)

	// DELETE /api/admin/phases/{id}
	deletePhase, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/phases/{id}")
	deletePhase.SetSummary("Delete phase")
	deletePhase.SetDescription("Deletes a phase and its dependent records.")
	deletePhase.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deletePhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deletePhase)

	// POST /api/admin/phases/{id}/approve
	approvePhase, _ := r.NewOperationContext(http.MethodPost, "/api/admin/phases/{id}/approve")
	approvePhase.SetSummary("Approve phase")
	approvePhase.SetDescription("Adds a prepared phase to the activation pool.")
	approvePhase.AddRespStructure(PreparedPhaseResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	approvePhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	approvePhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(approvePhase)

	// GET /api/admin/phases/{id}/preview
	previewPhase, _ := r.NewOperationContext(http.MethodGet, "/api/admin/phases/{id}/preview")
	previewPhase.SetSummary("Preview phase")
	previewPhase.SetDescription("Full phase including coordinates, place description, and latest hint.")
	previewPhase.AddRespStructure(PhasePreviewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	previewPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(previewPhase)

	// POST /api/admin/phases/{id}/activate
	activatePhase, _ := r.NewOperationContext(http.MethodPost, "/api/admin/phases/{id}/activate")
	activatePhase.SetSummary("Activate phase")
	activatePhase.SetDescription("Makes this phase the single active one, demoting any current active phase.")
	activatePhase.AddRespStructure(AdminPhaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	activatePhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(activatePhase)

	// POST /api/admin/phases/{id}/regenerate-hint
	regenHint, _ := r.NewOperationContext(http.MethodPost, "/api/admin/phases/{id}/regenerate-hint")
	regenHint.SetSummary("Regenerate hint")
	regenHint.SetDescription("Generates a new hint version and makes it the live hint. Random style when hintType is omitted.")
	regenHint.AddReqStructure(RegenerateHintRequest{})
	regenHint.AddRespStructure(HintVersionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	regenHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	regenHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(regenHint)

	// GET /api/admin/phases/{id}/hint-versions
	listHints, _ := r.NewOperationContext(http.MethodGet, "/api/admin/phases/{id}/hint-versions")
	listHints.SetSummary("List hint versions")
	listHints.AddRespStructure([]HintVersionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listHints)

	// POST /api/admin/phases/{id}/use-hint/{versionId}
	useHint, _ := r.NewOperationContext(http.MethodPost, "/api/admin/phases/{id}/use-hint/{versionId}")
	useHint.SetSummary("Use hint version")
	useHint.SetDescription("Makes a previously generated hint the live one.")
	useHint.AddRespStructure(AdminPhaseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	useHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(useHint)

	// GET /api/admin/submissions
	adminSubs, _ := r.NewOperationContext(http.MethodGet, "/api/admin/submissions")
	adminSubs.SetSummary("Recent submissions")
	adminSubs.AddRespStructure([]SubmissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminSubs)

	// GET /api/admin/histories
	adminHistories, _ := r.NewOperationContext(http.MethodGet, "/api/admin/histories")
	adminHistories.SetSummary("Solved phases")
	adminHistories.AddRespStructure([]HistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(adminHistories)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
