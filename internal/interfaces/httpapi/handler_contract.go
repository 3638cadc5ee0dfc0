package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type renewContractRequest struct {
	Salary   int64 `json:"salary" validate:"required,gt=0"`
	Duration int   `json:"duration" validate:"required,min=1,max=4"`
}

type contractDTO struct {
	ID        string    `json:"id"`
	RosterID  string    `json:"rosterId"`
	Salary    int64     `json:"salary"`
	Duration  int       `json:"duration"`
	Clause    int64     `json:"clause"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func contractToDTO(c contract.Contract) contractDTO {
	return contractDTO{
		ID:        c.ID,
		RosterID:  c.RosterID,
		Salary:    c.Salary,
		Duration:  c.Duration,
		Clause:    c.Clause,
		Status:    string(c.Status),
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetContract")
	defer span.End()

	rosterID := strings.TrimSpace(r.PathValue("rosterID"))
	if rosterID == "" {
		writeError(ctx, w, fmt.Errorf("%w: roster id is required", usecase.ErrInvalidInput))
		return
	}

	c, err := h.contractService.Get(ctx, rosterID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contractToDTO(c))
}

func (h *Handler) RenewContract(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenewContract")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rosterID := strings.TrimSpace(r.PathValue("rosterID"))
	if rosterID == "" {
		writeError(ctx, w, fmt.Errorf("%w: roster id is required", usecase.ErrInvalidInput))
		return
	}

	var req renewContractRequest
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

	c, err := h.contractService.Renew(ctx, principal, sess.ID, rosterID, req.Salary, req.Duration)
	if err != nil {
		h.logger.WarnContext(ctx, "renew contract failed", "member_id", principal.MemberID, "roster_id", rosterID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, contractToDTO(c))
}
