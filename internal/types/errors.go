package types

import (
	"fmt"
	"strings"
)

// ConfigReason classifies configuration failures from cap resolution.
type ConfigReason string

const (
	ReasonInvalidSite        ConfigReason = "invalid_site"
	ReasonInvalidMode        ConfigReason = "invalid_mode"
	ReasonOverrideExceedsMax ConfigReason = "override_exceeds_max"
	ReasonNegativeOverride   ConfigReason = "negative_override"
)

// ConfigError reports a bad site, mode, or cap override. Configuration is
// validated eagerly, before any solving begins.
type ConfigError struct {
	Reason ConfigReason
	Site   string
	Mode   string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %s", e.Reason, e.Detail)
}

// InfeasibleError reports that no combination of available players can fill
// every slot within the constraints. The portfolio controller treats this as
// a per-attempt rejection, not a batch-fatal failure.
type InfeasibleError struct {
	Detail string
}

func (e *InfeasibleError) Error() string {
	return "infeasible lineup: " + e.Detail
}

// ExposureConflictError reports exposure targets that are mathematically
// unsatisfiable for the requested batch. Raised before any solve attempt.
type ExposureConflictError struct {
	Detail string
}

func (e *ExposureConflictError) Error() string {
	return "exposure conflict: " + e.Detail
}

// StaleDataError reports that a late swap finished against a pool that
// changed mid-solve: a selected unlocked-slot player is no longer ACTIVE in
// the latest snapshot. Fatal to the call, safe to retry with a fresh slate.
type StaleDataError struct {
	PlayerIDs []string
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("stale data: players no longer active: %s", strings.Join(e.PlayerIDs, ", "))
}
