package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type nominateAuctionRequest struct {
	PlayerID  string `json:"playerId" validate:"required"`
	BasePrice int64  `json:"basePrice" validate:"required,gt=0"`
}

type placeBidRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type auctionDTO struct {
	ID           string            `json:"id"`
	SessionID    string            `json:"sessionId"`
	PlayerID     string            `json:"playerId"`
	NominatorID  string            `json:"nominatorId,omitempty"`
	OwnerID      string            `json:"ownerId,omitempty"`
	BasePrice    int64             `json:"basePrice"`
	CurrentPrice int64             `json:"currentPrice"`
	Status       string            `json:"status"`
	ExpiresAt    time.Time         `json:"expiresAt"`
	Bids         []bidDTO          `json:"bids"`
	Result       *auctionResultDTO `json:"result,omitempty"`
}

type bidDTO struct {
	MemberID string    `json:"memberId"`
	Amount   int64     `json:"amount"`
	Winning  bool      `json:"winning"`
	PlacedAt time.Time `json:"placedAt"`
}

type auctionResultDTO struct {
	WinnerID   string `json:"winnerId,omitempty"`
	FinalPrice int64  `json:"finalPrice"`
	NoBids     bool   `json:"noBids"`
}

func auctionToDTO(a auction.Auction) auctionDTO {
	bids := make([]bidDTO, 0, len(a.Bids))
	for _, b := range a.Bids {
		bids = append(bids, bidDTO{
			MemberID: b.MemberID,
			Amount:   b.Amount,
			Winning:  b.Winning,
			PlacedAt: b.PlacedAt,
		})
	}

	dto := auctionDTO{
		ID:           a.ID,
		SessionID:    a.SessionID,
		PlayerID:     a.PlayerID,
		NominatorID:  a.NominatorID,
		OwnerID:      a.OwnerID,
		BasePrice:    a.BasePrice,
		CurrentPrice: a.CurrentPrice,
		Status:       string(a.Status),
		ExpiresAt:    a.ExpiresAt,
		Bids:         bids,
	}
	if a.Result != nil {
		dto.Result = &auctionResultDTO{
			WinnerID:   a.Result.WinnerID,
			FinalPrice: a.Result.FinalPrice,
			NoBids:     a.Result.NoBids,
		}
	}
	return dto
}

func resultToDTO(res auction.Result) auctionResultDTO {
	return auctionResultDTO{
		WinnerID:   res.WinnerID,
		FinalPrice: res.FinalPrice,
		NoBids:     res.NoBids,
	}
}

func (h *Handler) NominateAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.NominateAuction")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req nominateAuctionRequest
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

	a, err := h.auctionService.Nominate(ctx, principal, sess.ID, req.PlayerID, req.BasePrice)
	if err != nil {
		h.logger.WarnContext(ctx, "nominate auction failed", "member_id", principal.MemberID, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, auctionToDTO(a))
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAuction")
	defer span.End()

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	if auctionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: auction id is required", usecase.ErrInvalidInput))
		return
	}

	a, err := h.auctionService.Get(ctx, auctionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auctionToDTO(a))
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBid")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	if auctionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: auction id is required", usecase.ErrInvalidInput))
		return
	}

	var req placeBidRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	a, err := h.auctionService.PlaceBid(ctx, principal, auctionID, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "place bid failed", "member_id", principal.MemberID, "auction_id", auctionID, "amount", req.Amount, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auctionToDTO(a))
}

func (h *Handler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseAuction")
	defer span.End()

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	if auctionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: auction id is required", usecase.ErrInvalidInput))
		return
	}

	result, err := h.auctionService.Close(ctx, auctionID)
	if err != nil {
		h.logger.WarnContext(ctx, "close auction failed", "auction_id", auctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultToDTO(result))
}

func (h *Handler) CancelAuction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelAuction")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	auctionID := strings.TrimSpace(r.PathValue("auctionID"))
	if auctionID == "" {
		writeError(ctx, w, fmt.Errorf("%w: auction id is required", usecase.ErrInvalidInput))
		return
	}

	if err := h.auctionService.Cancel(ctx, principal, auctionID); err != nil {
		h.logger.WarnContext(ctx, "cancel auction failed", "auction_id", auctionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cancelled"})
}
