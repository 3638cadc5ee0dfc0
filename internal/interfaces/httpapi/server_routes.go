package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMarketRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/auctions", RequireAuth(verifier, http.HandlerFunc(handler.NominateAuction)))
	mux.Handle("GET /v1/auctions/{auctionID}", RequireAuth(verifier, http.HandlerFunc(handler.GetAuction)))
	mux.Handle("POST /v1/auctions/{auctionID}/bid", RequireAuth(verifier, http.HandlerFunc(handler.PlaceBid)))

	mux.Handle("GET /v1/rubata/queue", RequireAuth(verifier, http.HandlerFunc(handler.GetClaimQueue)))
	mux.Handle("GET /v1/rubata/turns/current/claimable", RequireAuth(verifier, http.HandlerFunc(handler.ClaimableTargets)))
	mux.Handle("POST /v1/rubata/turns/current/offer", RequireAuth(verifier, http.HandlerFunc(handler.OfferClaim)))
	mux.Handle("POST /v1/rubata/turns/current/bid", RequireAuth(verifier, http.HandlerFunc(handler.BidClaimTurn)))
	mux.Handle("POST /v1/rubata/turns/current/pass", RequireAuth(verifier, http.HandlerFunc(handler.PassClaimTurn)))
	mux.Handle("POST /v1/rubata/turns/current/ack", RequireAuth(verifier, http.HandlerFunc(handler.AcknowledgeTurn)))

	mux.Handle("GET /v1/indemnity/status", RequireAuth(verifier, http.HandlerFunc(handler.IndemnityStatus)))
	mux.Handle("POST /v1/indemnity/decisions", RequireAuth(verifier, http.HandlerFunc(handler.SubmitIndemnityDecisions)))

	mux.Handle("POST /v1/contracts/{rosterID}/renew", RequireAuth(verifier, http.HandlerFunc(handler.RenewContract)))
	mux.Handle("GET /v1/contracts/{rosterID}", RequireAuth(verifier, http.HandlerFunc(handler.GetContract)))

	mux.Handle("GET /v1/phase/status", RequireAuth(verifier, http.HandlerFunc(handler.PhaseStatus)))
	mux.Handle("GET /v1/phase/transitions", RequireAuth(verifier, http.HandlerFunc(handler.PhaseTransitions)))

	mux.Handle("GET /v1/movements", RequireAuth(verifier, http.HandlerFunc(handler.ListMovements)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/sessions", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.StartSession))))
	mux.Handle("POST /v1/phase/advance", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.AdvancePhase))))
	mux.Handle("POST /v1/rubata/start", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.StartClaimPhase))))
	mux.Handle("POST /v1/auctions/{auctionID}/close", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.CloseAuction))))
	mux.Handle("POST /v1/auctions/{auctionID}/cancel", RequireAuth(verifier, RequireAdmin(http.HandlerFunc(handler.CancelAuction))))
}
