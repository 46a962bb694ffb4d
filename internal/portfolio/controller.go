// Package portfolio drives the single-lineup solver repeatedly to build a
// batch of distinct lineups, tightening the feasible region after every
// accepted lineup with uniqueness and exposure constraints.
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lineupforge/lineup-engine/internal/solver"
	"github.com/lineupforge/lineup-engine/internal/types"
	"github.com/lineupforge/lineup-engine/pkg/logger"
)

const defaultMaxConsecutiveInfeasible = 25

// Request describes one portfolio generation batch.
type Request struct {
	Slate      *types.Slate
	SalaryCap  int
	MinSalary  int // 0 disables the floor
	Count      int
	Uniqueness int // minimum differing players between any two lineups
	Exposure   map[string]types.ExposureRule

	// MaxConsecutiveInfeasible stops the batch after this many rejected
	// attempts in a row. Zero uses the default.
	MaxConsecutiveInfeasible int
}

// Result reports a generated batch. GeneratedCount may fall short of the
// requested count; the shortfall is explained, never padded with duplicate
// or infeasible lineups.
type Result struct {
	Lineups        []*types.Lineup `json:"lineups"`
	GeneratedCount int             `json:"generated_count"`
	RejectedCount  int             `json:"rejected_count"`
	Shortfall      string          `json:"shortfall,omitempty"`
}

// Controller generates diversified lineup portfolios. Generation is
// sequential by design: every accepted lineup changes the feasible region
// for the next solve, so exposure state has a single writer.
type Controller struct {
	solver solver.Solver
	log    *logrus.Entry
}

// NewController creates a controller over the given solver.
func NewController(s solver.Solver) *Controller {
	return &Controller{
		solver: s,
		log:    logger.WithComponent("portfolio"),
	}
}

// Generate builds up to req.Count lineups. Exposure targets are validated
// before any solving begins; an unsatisfiable configuration raises
// ExposureConflictError. Cancelling ctx returns the lineups accepted so far
// as a valid partial result.
func (c *Controller) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}

	batchID := uuid.New().String()
	log := c.log.WithFields(logrus.Fields{
		"batch_id":   batchID,
		"count":      req.Count,
		"uniqueness": req.Uniqueness,
		"salary_cap": req.SalaryCap,
	})
	log.WithField("pool_size", len(req.Slate.Players)).Info("Starting portfolio generation")

	maxOverlap := req.Slate.RosterSize() - req.Uniqueness
	maxInfeasible := req.MaxConsecutiveInfeasible
	if maxInfeasible <= 0 {
		maxInfeasible = defaultMaxConsecutiveInfeasible
	}

	tracker := NewExposureTracker()
	result := &Result{}
	consecutive := 0

	for len(result.Lineups) < req.Count {
		if err := ctx.Err(); err != nil {
			result.Shortfall = fmt.Sprintf("generation cancelled after %d lineups: %v", len(result.Lineups), err)
			break
		}

		inst := c.buildInstance(&req, tracker, result.Lineups, maxOverlap)
		sol, err := c.solver.Solve(ctx, inst)
		if err != nil {
			var infeasible *types.InfeasibleError
			if errors.As(err, &infeasible) {
				result.RejectedCount++
				consecutive++
				log.WithFields(logrus.Fields{
					"accepted":    len(result.Lineups),
					"consecutive": consecutive,
					"reason":      infeasible.Detail,
				}).Debug("Solve attempt infeasible")
				if consecutive >= maxInfeasible {
					result.Shortfall = fmt.Sprintf(
						"stopped after %d consecutive infeasible attempts: %s",
						consecutive, infeasible.Detail)
					break
				}
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Shortfall = fmt.Sprintf("generation cancelled after %d lineups: %v", len(result.Lineups), err)
				break
			}
			return nil, fmt.Errorf("portfolio solve failed: %w", err)
		}

		lineup, err := types.NewLineup(req.Slate, sol.PlayerIDs, 1)
		if err != nil {
			return nil, fmt.Errorf("assembling lineup from solution: %w", err)
		}
		lineup.Approximate = sol.Approximate

		// Final invariant check before the lineup is emitted.
		if err := c.accept(&req, lineup, result.Lineups, maxOverlap); err != nil {
			result.RejectedCount++
			consecutive++
			log.WithError(err).Warn("Solution rejected by invariant check")
			if consecutive >= maxInfeasible {
				result.Shortfall = fmt.Sprintf("stopped after %d consecutive rejected attempts: %v", consecutive, err)
				break
			}
			continue
		}

		result.Lineups = append(result.Lineups, lineup)
		tracker.Add(lineup)
		consecutive = 0
	}

	result.GeneratedCount = len(result.Lineups)
	log.WithFields(logrus.Fields{
		"generated": result.GeneratedCount,
		"rejected":  result.RejectedCount,
		"shortfall": result.Shortfall,
	}).Info("Portfolio generation completed")
	return result, nil
}

func (c *Controller) validate(req *Request) error {
	if req.Slate == nil {
		return fmt.Errorf("portfolio request has no slate")
	}
	if req.Count <= 0 {
		return fmt.Errorf("portfolio count must be positive, got %d", req.Count)
	}
	if req.SalaryCap <= 0 {
		return fmt.Errorf("portfolio salary cap must be positive, got %d", req.SalaryCap)
	}
	rosterSize := req.Slate.RosterSize()
	if req.Uniqueness < 1 {
		req.Uniqueness = 1
	}
	if req.Uniqueness > rosterSize {
		return &types.ExposureConflictError{
			Detail: fmt.Sprintf("uniqueness %d exceeds roster size %d", req.Uniqueness, rosterSize),
		}
	}

	minSum := 0.0
	for id, rule := range req.Exposure {
		if rule.MinFraction < 0 || rule.MinFraction > 1 || rule.MaxFraction < 0 || rule.MaxFraction > 1 {
			return &types.ExposureConflictError{
				Detail: fmt.Sprintf("player %s exposure bounds outside [0,1]", id),
			}
		}
		max := rule.MaxFraction
		if max == 0 && rule.MinFraction == 0 {
			max = 1.0
		}
		if rule.MinFraction > max {
			return &types.ExposureConflictError{
				Detail: fmt.Sprintf("player %s min exposure %.2f exceeds max %.2f", id, rule.MinFraction, max),
			}
		}
		if _, ok := req.Slate.Player(id); !ok {
			return &types.ExposureConflictError{
				Detail: fmt.Sprintf("exposure rule references unknown player %s", id),
			}
		}
		minSum += rule.MinFraction
	}
	if minSum > float64(rosterSize) {
		return &types.ExposureConflictError{
			Detail: fmt.Sprintf("sum of minimum exposures %.2f exceeds roster size %d", minSum, rosterSize),
		}
	}
	return nil
}

// buildInstance tightens the solver's feasible region from batch state:
// quota-exhausted players are excluded, players whose minimum would
// otherwise become unreachable are forced in, and every accepted lineup
// contributes an overlap constraint.
func (c *Controller) buildInstance(req *Request, tracker *ExposureTracker, accepted []*types.Lineup, maxOverlap int) *solver.Instance {
	remaining := req.Count - len(accepted)
	inst := &solver.Instance{
		Slots:        req.Slate.Template.Slots,
		Players:      req.Slate.ActivePlayers(),
		SalaryCap:    req.SalaryCap,
		MinSalary:    req.MinSalary,
		Excluded:     tracker.Excluded(req.Exposure, req.Count),
		ForceInclude: tracker.Forced(req.Exposure, req.Count, remaining),
	}
	for _, lineup := range accepted {
		set := make(map[string]bool, len(lineup.Slots))
		for _, slot := range lineup.Slots {
			set[slot.PlayerID] = true
		}
		inst.Overlaps = append(inst.Overlaps, solver.OverlapConstraint{
			Players:   set,
			MaxShared: maxOverlap,
		})
	}
	return inst
}

// accept re-validates every emitted-lineup invariant against the snapshot:
// template fit, eligibility, salary bounds, uniqueness versus the batch.
func (c *Controller) accept(req *Request, lineup *types.Lineup, accepted []*types.Lineup, maxOverlap int) error {
	if err := lineup.Validate(req.Slate, req.SalaryCap, req.MinSalary); err != nil {
		return err
	}
	for i, prior := range accepted {
		if shared := lineup.Overlap(prior); shared > maxOverlap {
			return fmt.Errorf("lineup shares %d players with lineup %d, max %d", shared, i, maxOverlap)
		}
	}
	return nil
}
