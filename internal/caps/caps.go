// Package caps resolves site and mode salary caps and captain salary
// arithmetic. It is purely functional over a static cap table.
package caps

import (
	"fmt"
	"math"
	"strings"

	"github.com/lineupforge/lineup-engine/internal/types"
)

// Canonical site keys. Common aliases are normalized in canonicalSite.
const (
	SiteDraftKings = "dk"
	SiteFanDuel    = "fd"
	SiteYahoo      = "yahoo"
)

const (
	ModeClassic  = "classic"
	ModeShowdown = "showdown"
	ModeSingle   = "single"
	ModeCaptain  = "captain"
)

const captainMultiplier = 1.5

// capTable maps canonical site -> mode -> default salary cap.
var capTable = map[string]map[string]int{
	SiteDraftKings: {
		ModeClassic:  50000,
		ModeShowdown: 50000,
	},
	SiteFanDuel: {
		ModeClassic: 60000,
		ModeSingle:  60000,
	},
	SiteYahoo: {
		ModeClassic: 200,
	},
}

func canonicalSite(site string) string {
	switch strings.ToLower(site) {
	case "dk", "draftkings":
		return SiteDraftKings
	case "fd", "fanduel":
		return SiteFanDuel
	case "yahoo":
		return SiteYahoo
	}
	return strings.ToLower(site)
}

func canonicalMode(mode string) string {
	return strings.ToLower(mode)
}

// Resolve returns the salary cap for (site, mode). When override is non-nil
// it is returned instead, provided 0 <= *override <= default.
func Resolve(site, mode string, override *int) (int, error) {
	modes, ok := capTable[canonicalSite(site)]
	if !ok {
		return 0, &types.ConfigError{
			Reason: types.ReasonInvalidSite,
			Site:   site,
			Detail: fmt.Sprintf("unknown site %q", site),
		}
	}
	def, ok := modes[canonicalMode(mode)]
	if !ok {
		return 0, &types.ConfigError{
			Reason: types.ReasonInvalidMode,
			Site:   site,
			Mode:   mode,
			Detail: fmt.Sprintf("unknown mode %q for site %q", mode, site),
		}
	}
	if override == nil {
		return def, nil
	}
	if *override < 0 {
		return 0, &types.ConfigError{
			Reason: types.ReasonNegativeOverride,
			Site:   site,
			Mode:   mode,
			Detail: fmt.Sprintf("cap override %d is negative", *override),
		}
	}
	if *override > def {
		return 0, &types.ConfigError{
			Reason: types.ReasonOverrideExceedsMax,
			Site:   site,
			Mode:   mode,
			Detail: fmt.Sprintf("cap override %d exceeds site maximum %d", *override, def),
		}
	}
	return *override, nil
}

// ValidateSiteMode reports whether (site, mode) exists in the cap table
// without returning an error.
func ValidateSiteMode(site, mode string) bool {
	modes, ok := capTable[canonicalSite(site)]
	if !ok {
		return false
	}
	_, ok = modes[canonicalMode(mode)]
	return ok
}

// IsShowdownMode reports whether the mode belongs to the captain family.
func IsShowdownMode(mode string) bool {
	switch canonicalMode(mode) {
	case ModeShowdown, ModeSingle, ModeCaptain:
		return true
	}
	return false
}

// CaptainSalary returns the salary charged for a player in the captain slot:
// floor(base * 1.5) for showdown-family modes, the base salary unchanged for
// classic. Floor, not round: CaptainSalary(5333, ...) == 7999.
func CaptainSalary(baseSalary int, site, mode string) int {
	_ = site // captain arithmetic is identical across supported sites
	if !IsShowdownMode(mode) {
		return baseSalary
	}
	return int(math.Floor(float64(baseSalary) * captainMultiplier))
}
