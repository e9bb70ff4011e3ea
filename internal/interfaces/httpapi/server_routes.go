package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/avatars/options", handler.ListAvatarOptions)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.HandleFunc("POST /v1/login", handler.Login)
	mux.Handle("POST /v1/logout", RequireSession(resolver, http.HandlerFunc(handler.Logout)))
	mux.Handle("GET /v1/session", RequireSession(resolver, http.HandlerFunc(handler.GetSession)))
	mux.Handle("POST /v1/session/navigate", RequireSession(resolver, http.HandlerFunc(handler.Navigate)))
	mux.Handle("GET /v1/session/view", RequireSession(resolver, http.HandlerFunc(handler.RenderView)))
}

func registerContestRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("GET /v1/competitions", RequireSession(resolver, http.HandlerFunc(handler.ListCompetitions)))
	mux.Handle("POST /v1/competitions", RequireSession(resolver, http.HandlerFunc(handler.CreateCompetition)))
	mux.Handle("PUT /v1/competitions/{competitionID}", RequireSession(resolver, http.HandlerFunc(handler.EditCompetition)))
	mux.Handle("DELETE /v1/competitions/{competitionID}", RequireSession(resolver, http.HandlerFunc(handler.DeleteCompetition)))

	mux.Handle("GET /v1/competitions/{competitionID}/challenges", RequireSession(resolver, http.HandlerFunc(handler.ListChallenges)))
	mux.Handle("POST /v1/competitions/{competitionID}/challenges", RequireSession(resolver, http.HandlerFunc(handler.CreateChallenge)))
	mux.Handle("PUT /v1/challenges/{challengeID}", RequireSession(resolver, http.HandlerFunc(handler.EditChallenge)))
	mux.Handle("DELETE /v1/challenges/{challengeID}", RequireSession(resolver, http.HandlerFunc(handler.DeleteChallenge)))
}

func registerEntryRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("GET /v1/challenges/{challengeID}/submissions", RequireSession(resolver, http.HandlerFunc(handler.ListSubmissions)))
	mux.Handle("POST /v1/challenges/{challengeID}/submissions", RequireSession(resolver, http.HandlerFunc(handler.SubmitEntry)))
	mux.Handle("PUT /v1/submissions/{submissionID}/ratings", RequireSession(resolver, http.HandlerFunc(handler.RateSubmission)))
	mux.Handle("POST /v1/submissions/{submissionID}/feedback", RequireSession(resolver, http.HandlerFunc(handler.RequestFeedback)))
	mux.Handle("GET /v1/leaderboard", RequireSession(resolver, http.HandlerFunc(handler.GetLeaderboard)))
}

func registerUserRoutes(mux *http.ServeMux, handler *Handler, resolver SessionResolver) {
	mux.Handle("GET /v1/users", RequireSession(resolver, http.HandlerFunc(handler.ListUsers)))
	mux.Handle("POST /v1/users", RequireSession(resolver, http.HandlerFunc(handler.CreateUser)))
	mux.Handle("PUT /v1/users/me/avatar", RequireSession(resolver, http.HandlerFunc(handler.UpdateAvatar)))
	mux.Handle("PUT /v1/users/{userID}", RequireSession(resolver, http.HandlerFunc(handler.EditUser)))
	mux.Handle("DELETE /v1/users/{userID}", RequireSession(resolver, http.HandlerFunc(handler.DeleteUser)))
	mux.Handle("GET /v1/users/{userID}/stats", RequireSession(resolver, http.HandlerFunc(handler.GetPlayerStats)))
}
