package httpapi

import (
	"net/http"
	"time"

	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type advancePhaseRequest struct {
	To     string `json:"to" validate:"required"`
	Forced bool   `json:"forced"`
}

type sessionDTO struct {
	ID              string    `json:"id"`
	LeagueID        string    `json:"leagueId"`
	Phase           string    `json:"phase"`
	ActiveAuctionID string    `json:"activeAuctionId,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int64     `json:"version"`
}

type phaseStatusDTO struct {
	Session        sessionDTO `json:"session"`
	NextPhases     []string   `json:"nextPhases"`
	Blockers       []string   `json:"blockers"`
	ReadyToAdvance bool       `json:"readyToAdvance"`
	TurnCursor     *int       `json:"turnCursor,omitempty"`
	PendingAcks    []string   `json:"pendingAcks,omitempty"`
}

type transitionDTO struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID string    `json:"actorId"`
	Forced  bool      `json:"forced"`
	At      time.Time `json:"at"`
}

func sessionToDTO(s market.Session) sessionDTO {
	return sessionDTO{
		ID:              s.ID,
		LeagueID:        s.LeagueID,
		Phase:           string(s.Phase),
		ActiveAuctionID: s.ActiveAuctionID,
		StartedAt:       s.StartedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

func phaseStatusToDTO(status usecase.PhaseStatus) phaseStatusDTO {
	successors := market.Successors(status.Session.Phase)
	next := make([]string, 0, len(successors))
	for _, p := range successors {
		next = append(next, string(p))
	}

	blockers := status.Blockers
	if blockers == nil {
		blockers = []string{}
	}

	return phaseStatusDTO{
		Session:        sessionToDTO(status.Session),
		NextPhases:     next,
		Blockers:       blockers,
		ReadyToAdvance: len(blockers) == 0,
		TurnCursor:     status.TurnCursor,
		PendingAcks:    status.PendingAcks,
	}
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartSession")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sess, err := h.phaseService.StartSession(ctx, principal, principal.LeagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "start session failed", "league_id", principal.LeagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(sess))
}

func (h *Handler) PhaseStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PhaseStatus")
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

	status, err := h.phaseService.Status(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, phaseStatusToDTO(status))
}

func (h *Handler) PhaseTransitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PhaseTransitions")
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

	transitions, err := h.phaseService.Transitions(ctx, sess.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]transitionDTO, 0, len(transitions))
	for _, t := range transitions {
		items = append(items, transitionDTO{
			ID:      t.ID,
			From:    string(t.From),
			To:      string(t.To),
			ActorID: t.ActorID,
			Forced:  t.Forced,
			At:      t.At,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvancePhase")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req advancePhaseRequest
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

	updated, err := h.phaseService.Advance(ctx, principal, sess.ID, market.Phase(req.To), req.Forced)
	if err != nil {
		h.logger.WarnContext(ctx, "advance phase failed", "session_id", sess.ID, "to", req.To, "forced", req.Forced, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(updated))
}
