package domain

import "fmt"

// Tier is a subscription tier. Tiers are ordered: bronze < silver < gold <
// platinum. The bronze ceiling also applies to anonymous callers and to any
// identity without an active subscription.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// DefaultTier is the tier applied when no active subscription exists.
const DefaultTier = TierBronze

// tierLimits is the single source of truth for tier ceilings, in requests
// per rate-limit window. Both the tier resolver and the subscription
// creation path read from here so the stored rate_limit value can never
// drift from the nominal table. Platinum is effectively unbounded.
var tierLimits = map[Tier]int{
	TierBronze:   100,
	TierSilver:   1000,
	TierGold:     5000,
	TierPlatinum: 999999,
}

var tierRank = map[Tier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierLimits[t]; !ok {
		return "", fmt.Errorf("invalid tier %q", s)
	}
	return t, nil
}

// Limit returns the request ceiling for the tier per rate-limit window.
// Unknown tiers fall back to the bronze ceiling.
func (t Tier) Limit() int {
	if limit, ok := tierLimits[t]; ok {
		return limit
	}
	return tierLimits[DefaultTier]
}

// Rank returns the position of the tier in the bronze..platinum ordering.
// Unknown tiers rank alongside bronze.
func (t Tier) Rank() int {
	return tierRank[t]
}

func (t Tier) String() string { return string(t) }
