package lemonsqueezy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Webhook event names handled by the subscription sync.
const (
	EventSubscriptionCreated          = "subscription_created"
	EventSubscriptionUpdated          = "subscription_updated"
	EventSubscriptionCancelled        = "subscription_cancelled"
	EventSubscriptionResumed          = "subscription_resumed"
	EventSubscriptionExpired          = "subscription_expired"
	EventSubscriptionPaused           = "subscription_paused"
	EventSubscriptionUnpaused         = "subscription_unpaused"
	EventSubscriptionPaymentSuccess   = "subscription_payment_success"
	EventSubscriptionPaymentFailed    = "subscription_payment_failed"
	EventSubscriptionPaymentRecovered = "subscription_payment_recovered"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// WebhookMeta is the meta block of a webhook delivery.
type WebhookMeta struct {
	EventName  string         `json:"event_name"`
	TestMode   bool           `json:"test_mode"`
	CustomData map[string]any `json:"custom_data"`
}

// UserID returns custom_data.user_id when it was attached at checkout.
func (m WebhookMeta) UserID() string {
	if m.CustomData == nil {
		return ""
	}
	raw, ok := m.CustomData["user_id"]
	if !ok {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

const (
	resourceSubscriptions        = "subscriptions"
	resourceSubscriptionInvoices = "subscription-invoices"
)

// WebhookEvent is a subscription webhook delivery. Payment events carry a
// subscription invoice; its parent subscription id is kept aside.
type WebhookEvent struct {
	Meta WebhookMeta                      `json:"meta"`
	Data resource[SubscriptionAttributes] `json:"data"`

	invoiceSubscriptionID string
}

// IsInvoiceEvent reports whether the event carries a subscription invoice.
func (e WebhookEvent) IsInvoiceEvent() bool {
	return e.Data.Type == resourceSubscriptionInvoices
}

// SubscriptionID is the subscription the event concerns.
func (e WebhookEvent) SubscriptionID() string {
	if e.IsInvoiceEvent() {
		return e.invoiceSubscriptionID
	}
	return e.Data.ID
}

// Subscription returns the subscription carried by the event.
func (e WebhookEvent) Subscription() Subscription {
	return Subscription{ID: e.Data.ID, SubscriptionAttributes: e.Data.Attributes}
}

// IsSubscriptionEvent reports whether the event concerns a subscription resource.
func (e WebhookEvent) IsSubscriptionEvent() bool {
	return strings.HasPrefix(e.Meta.EventName, "subscription_") && e.Data.Type == resourceSubscriptions
}

// VerifySignature checks the hex HMAC-SHA256 of body against signature.
func VerifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhookEvent decodes a webhook body.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	if strings.TrimSpace(event.Meta.EventName) == "" {
		return WebhookEvent{}, errors.New("webhook event_name is required")
	}
	if event.IsInvoiceEvent() {
		var invoice struct {
			Data struct {
				Attributes struct {
					SubscriptionID NumericID `json:"subscription_id"`
				} `json:"attributes"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &invoice); err != nil {
			return WebhookEvent{}, fmt.Errorf("decode invoice webhook: %w", err)
		}
		event.invoiceSubscriptionID = invoice.Data.Attributes.SubscriptionID.String()
	}
	return event, nil
}
