package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lineupforge/lineup-engine/internal/caps"
	"github.com/lineupforge/lineup-engine/internal/portfolio"
	"github.com/lineupforge/lineup-engine/internal/simulator"
	"github.com/lineupforge/lineup-engine/internal/solver"
	"github.com/lineupforge/lineup-engine/internal/types"
	"github.com/lineupforge/lineup-engine/pkg/cache"
	"github.com/lineupforge/lineup-engine/pkg/config"
	"github.com/lineupforge/lineup-engine/pkg/logger"
)

// slateFile is the engine-native slate input. Ingestion and site-specific
// upload formats live in external collaborators.
type slateFile struct {
	Site     string         `json:"site"`
	Sport    string         `json:"sport"`
	Mode     string         `json:"mode"`
	Template string         `json:"template"`
	Version  int            `json:"version"`
	Players  []types.Player `json:"players"`
}

type output struct {
	SalaryCap int                     `json:"salary_cap"`
	Portfolio *portfolio.Result       `json:"portfolio"`
	Exposure  *portfolio.Report       `json:"exposure,omitempty"`
	Scores    []simulator.ScoreResult `json:"scores,omitempty"`
}

func main() {
	slatePath := flag.String("slate", "", "path to slate JSON file")
	count := flag.Int("count", 20, "number of lineups to generate")
	uniqueness := flag.Int("uniqueness", 1, "minimum differing players between lineups")
	capOverride := flag.Int("cap-override", -1, "salary cap override (-1 uses the site default)")
	exposurePath := flag.String("exposure", "", "path to exposure rules JSON (player id -> min/max fractions)")
	score := flag.Bool("score", false, "score the portfolio against a simulated field")
	fieldSize := flag.Int("field-size", 1000, "simulated opponent field size")
	entryFee := flag.Float64("entry-fee", 10, "contest entry fee for ROI")
	seed := flag.Uint64("seed", 42, "simulation seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	logger.WithComponent("main").WithFields(logrus.Fields{
		"environment": cfg.Env,
		"slate":       *slatePath,
	}).Info("Starting lineup engine")

	if *slatePath == "" {
		log.Fatal("-slate is required")
	}

	slate, salaryCap := loadSlate(log, *slatePath, *capOverride)
	exposure := loadExposure(log, *exposurePath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resultCache := connectCache(ctx, cfg, log)
	if len(exposure) > 0 {
		// The cache key does not encode exposure rules; solve fresh.
		resultCache = nil
	}
	cacheKey := cache.PortfolioKey(slate.Version, *count, *uniqueness, salaryCap)

	var result *portfolio.Result
	if resultCache != nil {
		if cached, err := resultCache.GetPortfolio(ctx, cacheKey); err == nil {
			log.WithField("cache_key", cacheKey).Info("Serving portfolio from cache")
			result = cached
		}
	}

	if result == nil {
		controller := portfolio.NewController(solver.NewBranchAndBound(cfg.SolverTimeBudget()))
		result, err = controller.Generate(ctx, portfolio.Request{
			Slate:                    slate,
			SalaryCap:                salaryCap,
			MinSalary:                cfg.MinSalary,
			Count:                    *count,
			Uniqueness:               *uniqueness,
			Exposure:                 exposure,
			MaxConsecutiveInfeasible: cfg.MaxConsecutiveInfeasible,
		})
		if err != nil {
			log.Fatalf("Portfolio generation failed: %v", err)
		}
		if resultCache != nil && result.Shortfall == "" {
			if err := resultCache.SetPortfolio(ctx, cacheKey, result, cfg.CacheExpiration); err != nil {
				log.WithError(err).Warn("Failed to cache portfolio result")
			}
		}
	}

	out := output{
		SalaryCap: salaryCap,
		Portfolio: result,
		Exposure:  portfolio.BuildReport(result.Lineups, exposure, slate),
	}

	if *score && len(result.Lineups) > 0 {
		field, err := simulator.BuildFieldModel(slate, *fieldSize, *seed)
		if err != nil {
			log.Fatalf("Failed to build field model: %v", err)
		}
		scores, err := simulator.ScorePortfolio(result.Lineups, slate, field,
			simulator.DoubleUpTable(*fieldSize, *entryFee), simulator.ScoreConfig{
				SimCount: cfg.MaxSimulations,
				Seed:     *seed,
				EntryFee: *entryFee,
				Variance: cfg.ScoreVariance,
				Workers:  cfg.SimulationWorkers,
			})
		if err != nil {
			log.Fatalf("Portfolio scoring failed: %v", err)
		}
		out.Scores = scores
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

func loadSlate(log *logrus.Logger, path string, capOverride int) (*types.Slate, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read slate file: %v", err)
	}
	var file slateFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Fatalf("Failed to parse slate file: %v", err)
	}

	template, ok := types.TemplateByName(file.Template)
	if !ok {
		log.Fatalf("Unknown roster template %q", file.Template)
	}

	var override *int
	if capOverride >= 0 {
		override = &capOverride
	}
	salaryCap, err := caps.Resolve(file.Site, file.Mode, override)
	if err != nil {
		log.Fatalf("Failed to resolve salary cap: %v", err)
	}

	slate, err := types.NewSlate(file.Site, file.Sport, file.Mode, salaryCap, template, file.Players, file.Version)
	if err != nil {
		log.Fatalf("Invalid slate: %v", err)
	}
	log.WithFields(logrus.Fields{
		"site":       slate.Site,
		"mode":       slate.Mode,
		"players":    len(slate.Players),
		"salary_cap": salaryCap,
	}).Info("Slate loaded")
	return slate, salaryCap
}

// parseExposure decodes per-player exposure rules from JSON:
// {"player_id": {"min_fraction": 0.1, "max_fraction": 0.6}, ...}
func parseExposure(data []byte) (map[string]types.ExposureRule, error) {
	var rules map[string]types.ExposureRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing exposure rules: %w", err)
	}
	return rules, nil
}

func loadExposure(log *logrus.Logger, path string) map[string]types.ExposureRule {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read exposure file: %v", err)
	}
	rules, err := parseExposure(data)
	if err != nil {
		log.Fatalf("Failed to parse exposure file: %v", err)
	}
	log.WithField("rules", len(rules)).Info("Exposure rules loaded")
	return rules
}

// connectCache wires the optional Redis result cache. A missing or
// unreachable Redis is a warning, not a failure.
func connectCache(ctx context.Context, cfg *config.Config, log *logrus.Logger) *cache.ResultCacheService {
	if cfg.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Invalid REDIS_URL, caching disabled")
		return nil
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, caching disabled")
		return nil
	}
	return cache.NewResultCacheService(client, log)
}
