package httpapi

import (
	"net/http"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/movement"
)

type movementDTO struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	Type         string    `json:"type"`
	PlayerID     string    `json:"playerId,omitempty"`
	FromMemberID string    `json:"fromMemberId,omitempty"`
	ToMemberID   string    `json:"toMemberId,omitempty"`
	Price        int64     `json:"price,omitempty"`
	AuctionID    string    `json:"auctionId,omitempty"`
	OldSalary    int64     `json:"oldSalary,omitempty"`
	NewSalary    int64     `json:"newSalary,omitempty"`
	OldDuration  int       `json:"oldDuration,omitempty"`
	NewDuration  int       `json:"newDuration,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func movementToDTO(m movement.Movement) movementDTO {
	return movementDTO{
		ID:           m.ID,
		SessionID:    m.SessionID,
		Type:         string(m.Type),
		PlayerID:     m.PlayerID,
		FromMemberID: m.FromMemberID,
		ToMemberID:   m.ToMemberID,
		Price:        m.Price,
		AuctionID:    m.AuctionID,
		OldSalary:    m.OldSalary,
		NewSalary:    m.NewSalary,
		OldDuration:  m.OldDuration,
		NewDuration:  m.NewDuration,
		CreatedAt:    m.CreatedAt,
	}
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMovements")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var movements []movement.Movement
	if auctionID := r.URL.Query().Get("auctionId"); auctionID != "" {
		movements, err = h.movementService.ListByAuction(ctx, auctionID)
	} else {
		sess, sessErr := h.activeSession(ctx, principal)
		if sessErr != nil {
			writeError(ctx, w, sessErr)
			return
		}
		movements, err = h.movementService.ListBySession(ctx, sess.ID)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]movementDTO, 0, len(movements))
	for _, m := range movements {
		items = append(items, movementToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
