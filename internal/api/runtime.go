package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lodestarfreight/mailroom/classify"
	"github.com/lodestarfreight/mailroom/internal/ai"
	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/internal/infrastructure"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/pkg/pdftext"
	"github.com/lodestarfreight/mailroom/workflow"
)

// Runtime extends Infrastructure with the classification engine and
// API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	Patterns      *classify.PatternSet
	Engine        *classify.Engine
	Extractor     *pdftext.Extractor
	StateCacheTTL time.Duration
}

// NewRuntime creates an API runtime with a module-scoped logger. The
// pattern table, workflow mapping, AI fallback, and PDF extractor are
// constructed once here and shared by all domain systems.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	patterns, err := loadPatterns(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	states, err := workflow.Load()
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}

	var fallback classify.Fallback
	if classifier := ai.New(&cfg.AI, logger); classifier != nil {
		fallback = classifier
	}

	engine := classify.NewEngine(patterns, states, fallback, logger, classify.Options{
		ReplyPenalty:        cfg.Engine.ReplyPenalty,
		ReplyFloor:          cfg.Engine.ReplyFloor,
		ReviewThreshold:     cfg.Engine.ReviewThreshold,
		SubjectShortCircuit: cfg.Engine.SubjectShortCircuit,
		FallbackTimeout:     cfg.AI.TimeoutDuration(),
	})

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination:    cfg.API.Pagination,
		Patterns:      patterns,
		Engine:        engine,
		Extractor:     pdftext.NewExtractor(logger),
		StateCacheTTL: cfg.Engine.StateCacheTTLDuration(),
	}, nil
}

func loadPatterns(cfg *config.Config, logger *slog.Logger) (*classify.PatternSet, error) {
	if cfg.Engine.PatternsFile != "" {
		return classify.LoadFile(cfg.Engine.PatternsFile, logger)
	}
	return classify.Load(logger)
}
