package enums

// Tier is a named subscription level.
type Tier string

const (
	TierSupporter   Tier = "supporter"
	TierChampion    Tier = "champion"
	TierLegend      Tier = "legend"
	TierHallOfFamer Tier = "hall_of_famer"
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{
	TierSupporter,
	TierChampion,
	TierLegend,
	TierHallOfFamer,
}

func (t Tier) String() string { return string(t) }

func (t Tier) IsValid() bool { return member(Tiers, t) }

func ParseTier(value string) (Tier, error) {
	return parse(Tiers, value, "tier")
}
