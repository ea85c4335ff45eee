package enums

// BillingInterval is how often a paid subscription renews.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

// BillingIntervals lists both intervals, monthly first.
var BillingIntervals = []BillingInterval{BillingIntervalMonthly, BillingIntervalYearly}

func (b BillingInterval) String() string { return string(b) }

func (b BillingInterval) IsValid() bool { return member(BillingIntervals, b) }

func ParseBillingInterval(value string) (BillingInterval, error) {
	return parse(BillingIntervals, value, "billing interval")
}
