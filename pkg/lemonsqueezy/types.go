package lemonsqueezy

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type resource[T any] struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes T      `json:"attributes"`
}

type document[T any] struct {
	Data resource[T] `json:"data"`
}

// NumericID accepts ids encoded either as JSON numbers or strings.
type NumericID string

func (n *NumericID) UnmarshalJSON(raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*n = NumericID(s)
		return nil
	}
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return err
	}
	*n = NumericID(text)
	return nil
}

// String returns the id as text.
func (n NumericID) String() string {
	return string(n)
}

// SubscriptionURLs are customer-facing links returned with a subscription.
type SubscriptionURLs struct {
	UpdatePaymentMethod string `json:"update_payment_method"`
	CustomerPortal      string `json:"customer_portal"`
}

// SubscriptionAttributes mirrors data.attributes of a subscription resource.
type SubscriptionAttributes struct {
	StoreID      NumericID        `json:"store_id"`
	CustomerID   NumericID        `json:"customer_id"`
	OrderID      NumericID        `json:"order_id"`
	ProductID    NumericID        `json:"product_id"`
	VariantID    NumericID        `json:"variant_id"`
	UserName     string           `json:"user_name"`
	UserEmail    string           `json:"user_email"`
	Status       string           `json:"status"`
	Cancelled    bool             `json:"cancelled"`
	CardBrand    *string          `json:"card_brand"`
	CardLastFour *string          `json:"card_last_four"`
	RenewsAt     *time.Time       `json:"renews_at"`
	EndsAt       *time.Time       `json:"ends_at"`
	TrialEndsAt  *time.Time       `json:"trial_ends_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	URLs         SubscriptionURLs `json:"urls"`
}

// Subscription is a billing-side subscription.
type Subscription struct {
	ID string
	SubscriptionAttributes
}

// VariantAttributes mirrors data.attributes of a variant resource.
type VariantAttributes struct {
	ProductID NumericID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Interval  *string   `json:"interval"`
	Status    string    `json:"status"`
}

// Variant is a purchasable SKU.
type Variant struct {
	ID string
	VariantAttributes
}
