package httpapi

import (
	"net/http"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type submitDecisionsRequest struct {
	Decisions []decisionItemRequest `json:"decisions" validate:"required,min=1,dive"`
}

type decisionItemRequest struct {
	RosterID string `json:"rosterId" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=KEEP RELEASE"`
}

type settlementDTO struct {
	SessionID      string             `json:"sessionId"`
	Entries        []affectedEntryDTO `json:"entries"`
	PendingMembers []string           `json:"pendingMembers"`
	Settled        bool               `json:"settled"`
}

type affectedEntryDTO struct {
	RosterID     string `json:"rosterId"`
	MemberID     string `json:"memberId"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	Reason       string `json:"reason"`
	Clause       int64  `json:"clause"`
	Resolved     bool   `json:"resolved"`
	Action       string `json:"action,omitempty"`
	Compensation int64  `json:"compensation"`
}

type decisionDTO struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"sessionId"`
	MemberID    string            `json:"memberId"`
	Items       []decisionItemDTO `json:"items"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

type decisionItemDTO struct {
	RosterID     string `json:"rosterId"`
	Action       string `json:"action"`
	Compensation int64  `json:"compensation"`
}

func settlementToDTO(s indemnity.Settlement) settlementDTO {
	entries := make([]affectedEntryDTO, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, affectedEntryDTO{
			RosterID:     e.RosterID,
			MemberID:     e.MemberID,
			PlayerID:     e.PlayerID,
			PlayerName:   e.PlayerName,
			Reason:       string(e.Reason),
			Clause:       e.Clause,
			Resolved:     e.Resolved,
			Action:       string(e.Action),
			Compensation: e.Compensation,
		})
	}

	return settlementDTO{
		SessionID:      s.SessionID,
		Entries:        entries,
		PendingMembers: s.MembersPending(),
		Settled:        s.Settled(),
	}
}

func decisionToDTO(d indemnity.Decision) decisionDTO {
	items := make([]decisionItemDTO, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, decisionItemDTO{
			RosterID:     item.RosterID,
			Action:       string(item.Action),
			Compensation: item.Compensation,
		})
	}

	return decisionDTO{
		ID:          d.ID,
		SessionID:   d.SessionID,
		MemberID:    d.MemberID,
		Items:       items,
		SubmittedAt: d.SubmittedAt,
	}
}

func (h *Handler) IndemnityStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IndemnityStatus")
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

	settlement, err := h.indemnityService.Settlement(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementToDTO(settlement))
}

func (h *Handler) SubmitIndemnityDecisions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitIndemnityDecisions")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitDecisionsRequest
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

	inputs := make([]usecase.DecisionInput, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		inputs = append(inputs, usecase.DecisionInput{
			RosterID: d.RosterID,
			Action:   indemnity.Action(d.Decision),
		})
	}

	decision, err := h.indemnityService.SubmitDecisions(ctx, principal, sess.ID, inputs)
	if err != nil {
		h.logger.WarnContext(ctx, "submit indemnity decisions failed", "member_id", principal.MemberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, decisionToDTO(decision))
}
