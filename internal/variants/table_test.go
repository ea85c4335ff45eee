package variants

import (
	"testing"

	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/enums"
)

func TestYearlyChampionRoundTrip(t *testing.T) {
	table := NewTable(config.VariantsConfig{YearlyChampion: "v789"})

	id, ok := table.VariantID(enums.TierChampion, enums.BillingIntervalYearly)
	if !ok || id != "v789" {
		t.Fatalf("expected v789, got %q ok=%v", id, ok)
	}

	mapping, ok := table.MapVariantToTierAndInterval("v789")
	if !ok {
		t.Fatal("expected v789 to map")
	}
	if mapping.Tier != enums.TierChampion || mapping.Interval != enums.BillingIntervalYearly {
		t.Fatalf("unexpected mapping %+v", mapping)
	}
}

func TestUnconfiguredPairsNeverMatch(t *testing.T) {
	table := NewTable(config.VariantsConfig{MonthlySupporter: "m-sup"})

	for _, tier := range enums.Tiers {
		for _, interval := range []enums.BillingInterval{enums.BillingIntervalMonthly, enums.BillingIntervalYearly} {
			if tier == enums.TierSupporter && interval == enums.BillingIntervalMonthly {
				continue
			}
			if id, ok := table.VariantID(tier, interval); ok || id != "" {
				t.Fatalf("%s/%s: expected unconfigured, got %q", tier, interval, id)
			}
		}
	}

	for _, candidate := range []string{"", "   ", "unknown", "v789"} {
		if mapping, ok := table.MapVariantToTierAndInterval(candidate); ok {
			t.Fatalf("expected %q not to match, got %+v", candidate, mapping)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	table := NewTable(config.VariantsConfig{MonthlyChampion: "dup", YearlyLegend: "dup"})
	mapping, ok := table.MapVariantToTierAndInterval("dup")
	if !ok {
		t.Fatal("expected match")
	}
	if mapping.Tier != enums.TierChampion || mapping.Interval != enums.BillingIntervalMonthly {
		t.Fatalf("expected first entry in table order, got %+v", mapping)
	}
}

func TestConfiguredListsOnlySetEntries(t *testing.T) {
	table := NewTable(config.VariantsConfig{MonthlySupporter: "a", YearlyHallOfFamer: " b "})
	got := table.Configured()
	if len(got) != 2 {
		t.Fatalf("expected 2 configured entries, got %d", len(got))
	}
	if got[1].VariantID != "b" || got[1].Tier != enums.TierHallOfFamer {
		t.Fatalf("unexpected entry %+v", got[1])
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var table *Table
	if _, ok := table.MapVariantToTierAndInterval("x"); ok {
		t.Fatal("nil table should not match")
	}
	if _, ok := table.VariantID(enums.TierSupporter, enums.BillingIntervalMonthly); ok {
		t.Fatal("nil table should not resolve")
	}
}
