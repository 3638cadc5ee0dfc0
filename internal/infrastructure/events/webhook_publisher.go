package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fantadynasty/transfer-market/internal/domain/event"
	"github.com/fantadynasty/transfer-market/internal/platform/resilience"
)

var errPublishTransient = errors.New("events: transient publish failure")

type WebhookPublisherConfig struct {
	BaseURL string
	Token   string
	Retries int
	Timeout time.Duration
	Breaker resilience.CircuitBreakerConfig
}

// WebhookPublisher pushes session events to the relay that fans them out to
// connected clients. Delivery is at-least-once; callers treat errors as
// log-only and never roll back on a failed publish.
type WebhookPublisher struct {
	client  *fasthttp.Client
	baseURL string
	token   string
	retries int
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *slog.Logger) *WebhookPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookPublisher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		retries: retries,
		timeout: timeout,
		breaker: resilience.NewCircuitBreaker(resilience.NormalizeCircuitBreakerConfig(cfg.Breaker)),
		logger:  logger,
	}
}

func (p *WebhookPublisher) Publish(ctx context.Context, channel string, evt event.Event) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return fmt.Errorf("event channel is required")
	}
	if p.baseURL == "" {
		return fmt.Errorf("event relay base URL is required")
	}

	if err := p.breaker.Allow(); err != nil {
		return fmt.Errorf("event relay unavailable: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	body, err := sonic.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", evt.Kind, err)
	}
	_, _ = buf.Write(body)

	publishURL := p.baseURL + "/v1/channels/" + channel + "/publish"

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("events.channel", channel),
			attribute.String("events.kind", string(evt.Kind)),
			attribute.String("events.publish_url", publishURL),
		)
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		lastErr = p.send(publishURL, buf.Bytes())
		if lastErr == nil {
			p.breaker.RecordSuccess()
			return nil
		}
		if !errors.Is(lastErr, errPublishTransient) {
			break
		}
		if attempt < p.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 100 * time.Millisecond):
			}
		}
	}

	p.breaker.RecordFailure()
	p.logger.WarnContext(ctx, "event publish failed",
		"channel", channel,
		"kind", evt.Kind,
		"error", lastErr,
	)
	return fmt.Errorf("publish event %s to %s: %w", evt.Kind, channel, lastErr)
}

func (p *WebhookPublisher) send(publishURL string, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(publishURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return errors.Mark(err, errPublishTransient)
	}

	status := resp.StatusCode()
	switch {
	case status/100 == 2:
		return nil
	case status == fasthttp.StatusTooManyRequests || status/100 == 5:
		return errors.Mark(fmt.Errorf("relay responded %d", status), errPublishTransient)
	default:
		return fmt.Errorf("relay responded %d: %s", status, truncate(resp.Body(), 512))
	}
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return strings.TrimSpace(string(b))
	}
	return strings.TrimSpace(string(b[:max])) + "..."
}
