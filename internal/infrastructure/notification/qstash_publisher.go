package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

type QStashPublisherConfig struct {
	BaseURL       string
	Token         string
	TargetBaseURL string
	Retries       int
	Timeout       time.Duration
}

// QStashPublisher delivers engine events to the notification service
// through QStash. Deduplication IDs keep admission retries from producing
// duplicate member notifications.
type QStashPublisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	retries       int
	logger        *logging.Logger
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &QStashPublisher{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:       cfg.Retries,
		logger:        logger,
	}
}

// Publish implements usecase.EventPublisher. Event types map onto the
// notification service's event ingestion paths.
func (p *QStashPublisher) Publish(ctx context.Context, eventType string, payload any, dedupID string) error {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return fmt.Errorf("event type is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return fmt.Errorf("invalid notify queue base url: %w", err)
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return fmt.Errorf("invalid notify target base url: %w", err)
	}

	targetURL := targetBaseURL + "/v1/events/" + eventType
	publishURL := baseURL + "/v2/publish/" + targetURL

	bodyPayload := payload
	if bodyPayload == nil {
		bodyPayload = map[string]any{}
	}
	body, err := jsoniter.Marshal(bodyPayload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("notify.event_type", eventType),
			attribute.String("notify.publish_url", publishURL),
			attribute.String("notify.deduplication_id", dedupID),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("create event publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", fmt.Sprintf("%d", p.retries))
	}
	if strings.TrimSpace(dedupID) != "" {
		req.Header.Set("Upstash-Deduplication-Id", strings.TrimSpace(dedupID))
	}

	p.logger.DebugContext(ctx, "publishing event",
		"event_type", eventType,
		"curl", buildPublishCurlPreview(publishURL, p.retries, dedupID, string(body)),
	)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"publish event %s status=%d target_url=%s body=%s",
			eventType,
			resp.StatusCode,
			targetURL,
			strings.TrimSpace(string(raw)),
		)
	}

	p.logger.InfoContext(ctx, "event published",
		"event_type", eventType,
		"deduplication_id", dedupID,
	)
	return nil
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildPublishCurlPreview renders the outbound publish as a copy-pastable
// curl command for debug logs. The bearer token is masked.
func buildPublishCurlPreview(publishURL string, retries int, dedupID, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if strings.TrimSpace(dedupID) != "" {
		appendHeader("Upstash-Deduplication-Id: " + strings.TrimSpace(dedupID))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
