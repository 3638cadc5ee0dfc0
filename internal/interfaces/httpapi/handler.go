package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type Handler struct {
	auctionService   *usecase.AuctionService
	rubataService    *usecase.RubataService
	indemnityService *usecase.IndemnityService
	contractService  *usecase.ContractService
	phaseService     *usecase.PhaseService
	movementService  *usecase.MovementService
	logger           *slog.Logger
	validator        *validator.Validate
}

func NewHandler(
	auctionService *usecase.AuctionService,
	rubataService *usecase.RubataService,
	indemnityService *usecase.IndemnityService,
	contractService *usecase.ContractService,
	phaseService *usecase.PhaseService,
	movementService *usecase.MovementService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		auctionService:   auctionService,
		rubataService:    rubataService,
		indemnityService: indemnityService,
		contractService:  contractService,
		phaseService:     phaseService,
		movementService:  movementService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// requirePrincipal pulls the authenticated caller installed by RequireAuth.
func requirePrincipal(ctx context.Context) (member.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return member.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// activeSession resolves the caller's running market session; routes without
// a session path segment are always scoped to the principal's league.
func (h *Handler) activeSession(ctx context.Context, principal member.Principal) (market.Session, error) {
	if principal.LeagueID == "" {
		return market.Session{}, fmt.Errorf("%w: principal has no league", usecase.ErrForbidden)
	}
	return h.phaseService.ActiveSession(ctx, principal.LeagueID)
}

func (h *Handler) decodeBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
