package variants

import (
	"strings"

	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

// Mapping is the (tier, interval) pair a variant id resolves to.
type Mapping struct {
	Tier     enums.Tier            `json:"tier"`
	Interval enums.BillingInterval `json:"interval"`
}

// Entry binds one configured variant id to its pair.
type Entry struct {
	Mapping
	VariantID string
}

// Table is the fixed variant mapping, one entry per (tier, interval) pair.
// Entries with an empty VariantID are unconfigured and never match.
type Table struct {
	entries []Entry
}

// NewTable builds the table from configuration once at startup.
func NewTable(cfg config.VariantsConfig) *Table {
	return &Table{entries: []Entry{
		{Mapping{enums.TierSupporter, enums.BillingIntervalMonthly}, clean(cfg.MonthlySupporter)},
		{Mapping{enums.TierChampion, enums.BillingIntervalMonthly}, clean(cfg.MonthlyChampion)},
		{Mapping{enums.TierLegend, enums.BillingIntervalMonthly}, clean(cfg.MonthlyLegend)},
		{Mapping{enums.TierHallOfFamer, enums.BillingIntervalMonthly}, clean(cfg.MonthlyHallOfFamer)},
		{Mapping{enums.TierSupporter, enums.BillingIntervalYearly}, clean(cfg.YearlySupporter)},
		{Mapping{enums.TierChampion, enums.BillingIntervalYearly}, clean(cfg.YearlyChampion)},
		{Mapping{enums.TierLegend, enums.BillingIntervalYearly}, clean(cfg.YearlyLegend)},
		{Mapping{enums.TierHallOfFamer, enums.BillingIntervalYearly}, clean(cfg.YearlyHallOfFamer)},
	}}
}

// MapVariantToTierAndInterval returns the pair for variantID, first match wins.
func (t *Table) MapVariantToTierAndInterval(variantID string) (Mapping, bool) {
	variantID = clean(variantID)
	if t == nil || variantID == "" {
		return Mapping{}, false
	}
	for _, entry := range t.entries {
		if entry.VariantID != "" && entry.VariantID == variantID {
			return entry.Mapping, true
		}
	}
	return Mapping{}, false
}

// VariantID returns the configured variant id for the pair.
// An unconfigured pair is a valid state and yields ("", false).
func (t *Table) VariantID(tier enums.Tier, interval enums.BillingInterval) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, entry := range t.entries {
		if entry.Tier == tier && entry.Interval == interval {
			return entry.VariantID, entry.VariantID != ""
		}
	}
	return "", false
}

// Configured lists the entries that carry a variant id, in table order.
func (t *Table) Configured() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		if entry.VariantID != "" {
			out = append(out, entry)
		}
	}
	return out
}

func clean(value string) string {
	return strings.TrimSpace(value)
}
