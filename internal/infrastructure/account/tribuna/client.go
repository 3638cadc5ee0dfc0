package tribuna

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/platform/cache"
	"github.com/fantadynasty/transfer-market/internal/platform/resilience"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

var errTribunaTransient = errors.New("tribuna: transient introspection failure")

type ClientConfig struct {
	BaseURL        string
	IntrospectPath string
	CacheTTL       time.Duration
	Breaker        resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens against the Tribuna account service.
// Successful introspections are cached by token hash so a burst of bids from
// the same manager does not hammer the account service.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	principals    *cache.Store
	breaker       *resilience.CircuitBreaker
	logger        *slog.Logger
}

func NewClient(httpClient *http.Client, cfg ClientConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		principals:    cache.NewStore(ttl),
		breaker:       resilience.NewCircuitBreaker(resilience.NormalizeCircuitBreakerConfig(cfg.Breaker)),
		logger:        logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (member.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return member.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	key := "principal:" + hashToken(token)
	cached, err := c.principals.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return c.introspect(ctx, token)
	})
	if err != nil {
		if isTransient(err) {
			return member.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return member.Principal{}, err
	}

	principal, ok := cached.(member.Principal)
	if !ok {
		return member.Principal{}, fmt.Errorf("unexpected principal cache entry for token")
	}
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (member.Principal, error) {
	if err := c.breaker.Allow(); err != nil {
		return member.Principal{}, fmt.Errorf("%w: account service unavailable: %v", usecase.ErrDependencyUnavailable, err)
	}

	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return member.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return member.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return member.Principal{}, errors.Mark(fmt.Errorf("request introspection to tribuna: %w", err), errTribunaTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.breaker.RecordSuccess()
		return member.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.breaker.RecordFailure()
		return member.Principal{}, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		c.logger.WarnContext(ctx, "tribuna introspection non-200",
			"status_code", resp.StatusCode,
		)
		return member.Principal{}, errors.Mark(
			fmt.Errorf("tribuna introspection failed with status %d", resp.StatusCode),
			errTribunaTransient,
		)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		c.breaker.RecordFailure()
		return member.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}
	c.breaker.RecordSuccess()

	if !decoded.Active {
		return member.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.MemberID) == "" {
		return member.Principal{}, fmt.Errorf("invalid introspect response: member_id is empty")
	}

	role := member.Role(strings.TrimSpace(decoded.Role))
	if role == "" {
		role = member.RoleManager
	}

	return member.Principal{
		MemberID: decoded.MemberID,
		LeagueID: decoded.LeagueID,
		Role:     role,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active   bool   `json:"active"`
	MemberID string `json:"member_id"`
	LeagueID string `json:"league_id"`
	Role     string `json:"role"`
}
