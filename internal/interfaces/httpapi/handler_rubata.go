package httpapi

import (
	"fmt"
	"net/http"

	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type startClaimPhaseRequest struct {
	TeamOrder []string `json:"teamOrder" validate:"required,min=2,dive,required"`
}

type offerClaimRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
}

type claimBidRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type queueDTO struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"sessionId"`
	Status           string    `json:"status"`
	CompletionReason string    `json:"completionReason,omitempty"`
	Cursor           int       `json:"cursor"`
	Turns            []turnDTO `json:"turns"`
}

type turnDTO struct {
	Index          int      `json:"index"`
	MemberID       string   `json:"memberId"`
	Position       string   `json:"position"`
	Status         string   `json:"status"`
	SkipReason     string   `json:"skipReason,omitempty"`
	TargetRosterID string   `json:"targetRosterId,omitempty"`
	AuctionID      string   `json:"auctionId,omitempty"`
	Acks           []string `json:"acks,omitempty"`
}

func queueToDTO(q rubata.Queue) queueDTO {
	turns := make([]turnDTO, 0, len(q.Turns))
	for _, t := range q.Turns {
		turns = append(turns, turnDTO{
			Index:          t.Index,
			MemberID:       t.MemberID,
			Position:       string(t.Position),
			Status:         string(t.Status),
			SkipReason:     string(t.Skip),
			TargetRosterID: t.TargetRosterID,
			AuctionID:      t.AuctionID,
			Acks:           t.Acks,
		})
	}

	return queueDTO{
		ID:               q.ID,
		SessionID:        q.SessionID,
		Status:           string(q.Status),
		CompletionReason: q.CompletionReason,
		Cursor:           q.Cursor,
		Turns:            turns,
	}
}

func (h *Handler) StartClaimPhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartClaimPhase")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req startClaimPhaseRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.StartPhase(ctx, principal, sess.ID, req.TeamOrder)
	if err != nil {
		h.logger.WarnContext(ctx, "start claim phase failed", "session_id", sess.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, queueToDTO(queue))
}

func (h *Handler) GetClaimQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClaimQueue")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.Queue(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueToDTO(queue))
}

// ClaimableTargets lists the players the current turn could put up for a
// claim, alphabetically by name.
func (h *Handler) ClaimableTargets(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimableTargets")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	targets, err := h.rubataService.Claimable(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, targets)
}

func (h *Handler) OfferClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OfferClaim")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req offerClaimRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.Offer(ctx, principal, sess.ID, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "offer claim failed", "member_id", principal.MemberID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueToDTO(queue))
}

// BidClaimTurn places a bid on the claim auction attached to the current
// turn, so clients never have to chase the auction id themselves.
func (h *Handler) BidClaimTurn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BidClaimTurn")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req claimBidRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.Queue(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	turn, ok := queue.Current()
	if !ok || turn.Status != rubata.TurnBidding || turn.AuctionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: no claim auction is open on the current turn", usecase.ErrConflict))
		return
	}

	a, err := h.auctionService.PlaceBid(ctx, principal, turn.AuctionID, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "claim bid failed", "member_id", principal.MemberID, "auction_id", turn.AuctionID, "amount", req.Amount, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auctionToDTO(a))
}

func (h *Handler) PassClaimTurn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PassClaimTurn")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.Pass(ctx, principal, sess.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "pass claim turn failed", "member_id", principal.MemberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueToDTO(queue))
}

func (h *Handler) AcknowledgeTurn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcknowledgeTurn")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.activeSession(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	queue, err := h.rubataService.Acknowledge(ctx, principal, sess.ID)
	if err != nil {
		h.logger.WarnContext(ctx, "acknowledge turn failed", "member_id", principal.MemberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, queueToDTO(queue))
}
