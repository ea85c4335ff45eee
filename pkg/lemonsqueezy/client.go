package lemonsqueezy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	pkgerrors "github.com/angelmondragon/scoreboard-manager/pkg/errors"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"github.com/angelmondragon/scoreboard-manager/pkg/metrics"
)

const (
	mediaType       = "application/vnd.api+json"
	maxErrorBody    = 64 << 10
	defaultBaseURL  = "https://api.lemonsqueezy.com"
	subscriptionsV1 = "/v1/subscriptions/"
	variantsV1      = "/v1/variants/"
)

var (
	errAPIKeyRequired = errors.New("lemonsqueezy api key is required")
	errLoggerRequired = errors.New("lemonsqueezy logger is required")
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("lemonsqueezy: status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("lemonsqueezy: status %d", e.Status)
}

// Client talks to the LemonSqueezy JSON:API with a bearer API key.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	storeID string
	logger  *logger.Logger
	metrics *metrics.BillingMetrics
}

// NewClient validates credentials and builds the API client.
func NewClient(ctx context.Context, cfg config.BillingConfig, logg *logger.Logger, m *metrics.BillingMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logg.Info(ctx, "lemonsqueezy client initialized")

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		storeID: strings.TrimSpace(cfg.StoreID),
		logger:  logg,
		metrics: m,
	}, nil
}

// StoreID returns the configured store identifier.
func (c *Client) StoreID() string {
	if c == nil {
		return ""
	}
	return c.storeID
}

// GetSubscription fetches a subscription by its external id.
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	var doc document[SubscriptionAttributes]
	if err := c.do(ctx, "get_subscription", http.MethodGet, subscriptionsV1+id, nil, &doc); err != nil {
		return nil, err
	}
	return &Subscription{ID: doc.Data.ID, SubscriptionAttributes: doc.Data.Attributes}, nil
}

// UpdateSubscriptionCancelled flips the cancelled flag on a subscription.
func (c *Client) UpdateSubscriptionCancelled(ctx context.Context, id string, cancelled bool) (*Subscription, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	payload := map[string]any{
		"data": map[string]any{
			"type":       "subscriptions",
			"id":         id,
			"attributes": map[string]any{"cancelled": cancelled},
		},
	}
	op := "resume_subscription"
	if cancelled {
		op = "cancel_subscription"
	}
	var doc document[SubscriptionAttributes]
	if err := c.do(ctx, op, http.MethodPatch, subscriptionsV1+id, payload, &doc); err != nil {
		return nil, err
	}
	return &Subscription{ID: doc.Data.ID, SubscriptionAttributes: doc.Data.Attributes}, nil
}

// GetVariant fetches variant metadata including its live price in cents.
func (c *Client) GetVariant(ctx context.Context, id string) (*Variant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	var doc document[VariantAttributes]
	if err := c.do(ctx, "get_variant", http.MethodGet, variantsV1+id, nil, &doc); err != nil {
		return nil, err
	}
	return &Variant{ID: doc.Data.ID, VariantAttributes: doc.Data.Attributes}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(op, time.Since(start), err)
	}()

	var reader io.Reader
	if body != nil {
		raw, merr := json.Marshal(body)
		if merr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, merr, "encode billing request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build billing request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", mediaType)
	if body != nil {
		req.Header.Set("Content-Type", mediaType)
	}

	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("failed to %s", humanize(op)))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: extractDetail(resp.Body)}
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode, "error": apiErr.Error()})
		return mapAPIError(apiErr, op)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode billing response")
		}
	}
	c.log(ctx, "response", op, map[string]any{"status": resp.StatusCode})
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("lemonsqueezy %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("lemonsqueezy %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"authorization", "token", "secret", "email", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func extractDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Errors []struct {
			Detail string `json:"detail"`
			Title  string `json:"title"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Errors) == 0 {
		return ""
	}
	if detail := strings.TrimSpace(payload.Errors[0].Detail); detail != "" {
		return detail
	}
	return strings.TrimSpace(payload.Errors[0].Title)
}

// mapAPIError keeps the upstream detail as the public message when present.
func mapAPIError(apiErr *APIError, op string) error {
	message := apiErr.Detail
	if message == "" {
		message = fmt.Sprintf("failed to %s", humanize(op))
	}
	return pkgerrors.Wrap(domainCodeForStatus(apiErr.Status), apiErr, message)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		return pkgerrors.CodeDependency
	}
}

func humanize(op string) string {
	return strings.ReplaceAll(op, "_", " ")
}
