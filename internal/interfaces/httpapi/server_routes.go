package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/challenges", handler.ListChallenges)
	mux.HandleFunc("GET /v1/challenges/{challengeID}", handler.GetChallenge)
	mux.HandleFunc("GET /v1/challenges/{challengeID}/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /v1/challenges/{challengeID}/completion-stats", handler.GetCompletionStats)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedChallengeRoutes(mux, handler, verifier)
	registerAuthorizedParticipationRoutes(mux, handler, verifier)
	registerAuthorizedProgressRoutes(mux, handler, verifier)
	registerAuthorizedInvitationRoutes(mux, handler, verifier)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh-leaderboards", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRefreshLeaderboardsJob)))
}

func registerAuthorizedChallengeRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/challenges", RequireAuth(verifier, http.HandlerFunc(handler.CreateChallenge)))
	mux.Handle("PATCH /v1/challenges/{challengeID}/status", RequireAuth(verifier, http.HandlerFunc(handler.ChangeChallengeStatus)))
	mux.Handle("GET /v1/challenges/{challengeID}/results", RequireAuth(verifier, http.HandlerFunc(handler.GetChallengeResults)))
}

func registerAuthorizedParticipationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/challenges/{challengeID}/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinChallenge)))
	mux.Handle("DELETE /v1/challenges/{challengeID}/participation", RequireAuth(verifier, http.HandlerFunc(handler.LeaveChallenge)))
	mux.Handle("GET /v1/challenges/{challengeID}/participants", RequireAuth(verifier, http.HandlerFunc(handler.ListParticipants)))
	mux.Handle("POST /v1/challenges/{challengeID}/participants/{userID}/approve", RequireAuth(verifier, http.HandlerFunc(handler.ApproveParticipant)))
	mux.Handle("POST /v1/challenges/{challengeID}/participants/{userID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectParticipant)))
	mux.Handle("POST /v1/challenges/{challengeID}/participants/{userID}/complete", RequireAuth(verifier, http.HandlerFunc(handler.CompleteParticipant)))
	mux.Handle("POST /v1/challenges/{challengeID}/participants/{userID}/disqualify", RequireAuth(verifier, http.HandlerFunc(handler.DisqualifyParticipant)))
}

func registerAuthorizedProgressRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/challenges/{challengeID}/progress", RequireAuth(verifier, http.HandlerFunc(handler.ApplyProgress)))
	mux.Handle("POST /v1/challenges/{challengeID}/progress/replay", RequireAuth(verifier, http.HandlerFunc(handler.ReplayProgress)))
}

func registerAuthorizedInvitationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/challenges/{challengeID}/invitations", RequireAuth(verifier, http.HandlerFunc(handler.CreateInvitation)))
	mux.Handle("GET /v1/challenges/{challengeID}/invitations", RequireAuth(verifier, http.HandlerFunc(handler.ListInvitations)))
	mux.Handle("POST /v1/invitations/{invitationID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptInvitation)))
	mux.Handle("POST /v1/invitations/{invitationID}/decline", RequireAuth(verifier, http.HandlerFunc(handler.DeclineInvitation)))
	mux.Handle("DELETE /v1/invitations/{invitationID}", RequireAuth(verifier, http.HandlerFunc(handler.RevokeInvitation)))
}
