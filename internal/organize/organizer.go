package organize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/logging"
	"curator/internal/plan"
	"curator/internal/services"
	"curator/internal/strategy"
	"curator/internal/suggest"
	"curator/internal/suggestcache"
	"curator/internal/txlog"
)

// Options selects what one organization run does.
type Options struct {
	Root     string
	Strategy string
	// RulesFile feeds the pattern strategy; CategoriesFile overrides the
	// extension taxonomy. Both optional.
	RulesFile      string
	CategoriesFile string
	DryRun         bool
}

// Report is the outcome of one run: what was proposed, what survived
// filtering and planning, and what the executor did.
type Report struct {
	RunID     string
	Strategy  string
	Proposed  int
	Planned   []plan.Operation
	Rejected  []plan.Operation
	Execution *engine.Result
}

// Organizer ties the pipeline together: strategy proposals through the
// confidence filter, the planner, and the transaction executor.
type Organizer struct {
	cfg      *config.Config
	logger   *slog.Logger
	executor *engine.Executor
	cache    *suggestcache.Store
}

// New constructs an Organizer from loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return &Organizer{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "organize"),
		executor: engine.New(logger, cfg.TransactionLogDir(), cfg.LockPath(),
			engine.WithPreserveTimestamps(cfg.Organize.PreserveTimestamps)),
	}
}

// Close releases resources held by the organizer.
func (o *Organizer) Close() error {
	if o.cache != nil {
		return o.cache.Close()
	}
	return nil
}

// Run executes one full organization pass. With Options.DryRun the plan is
// built and reported but nothing on disk changes.
func (o *Organizer) Run(ctx context.Context, opts Options) (*Report, error) {
	ctx = services.WithRunID(ctx, uuid.NewString())
	ctx = services.WithStrategy(ctx, opts.Strategy)
	logger := logging.WithContext(ctx, o.logger)

	strat, err := o.buildStrategy(opts)
	if err != nil {
		return nil, err
	}

	proposals, err := strat.Propose(ctx, opts.Root)
	if err != nil {
		return nil, err
	}
	report := &Report{Strategy: strat.Name(), Proposed: len(proposals)}
	if len(proposals) == 0 {
		logger.Info("nothing to organize", logging.String("root", opts.Root))
		return report, nil
	}

	approved, rejected := suggest.Filter(proposals, o.cfg.Suggestions.ConfidenceThreshold)
	report.Rejected = append(report.Rejected, rejected...)

	planner := plan.NewPlanner(plan.NewResolver(o.folderPolicy(), o.logger), o.logger)
	planned, err := planner.Plan(approved)
	if err != nil {
		return nil, err
	}
	report.Planned = planned.Ops
	report.Rejected = append(report.Rejected, planned.Rejected...)

	result, err := o.executor.Execute(ctx, planned.Ops, opts.DryRun)
	if err != nil {
		return report, err
	}
	report.Execution = result
	report.RunID = result.RunID
	return report, nil
}

// Preview builds and reports the plan without executing it.
func (o *Organizer) Preview(ctx context.Context, opts Options) (*Report, error) {
	opts.DryRun = true
	return o.Run(ctx, opts)
}

// Suggest runs the classifier pipeline and returns the proposals split on the
// confidence threshold, without planning or executing anything.
func (o *Organizer) Suggest(ctx context.Context, root string) (approved, rejected []plan.Operation, err error) {
	ctx = services.WithRunID(ctx, uuid.NewString())
	ctx = services.WithStrategy(ctx, strategy.NameClassifier)

	strat, err := o.classifierStrategy()
	if err != nil {
		return nil, nil, err
	}
	proposals, err := strat.Propose(ctx, root)
	if err != nil {
		return nil, nil, err
	}
	approved, rejected = suggest.Filter(proposals, o.cfg.Suggestions.ConfidenceThreshold)
	return approved, rejected, nil
}

// Rollback reverses a past run. An empty runID targets the most recent log.
func (o *Organizer) Rollback(ctx context.Context, runID string, dryRun bool) (*engine.Result, error) {
	logDir := o.cfg.TransactionLogDir()

	var logPath string
	if strings.TrimSpace(runID) == "" {
		latest, err := txlog.Latest(logDir)
		if err != nil {
			return nil, services.Wrap(services.ErrFilesystem, "organize", "rollback", "find latest log", err)
		}
		if latest == "" {
			return nil, services.Wrap(services.ErrInvalidOperation, "organize", "rollback", "no transaction logs found", nil)
		}
		logPath = latest
	} else {
		logPath = txlog.FilePath(logDir, runID)
	}

	log, err := txlog.Load(logPath)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "organize", "rollback", logPath, err)
	}
	return o.executor.Rollback(ctx, log, dryRun)
}

// Logs lists the transaction logs of past runs, newest last.
func (o *Organizer) Logs() ([]string, error) {
	return txlog.List(o.cfg.TransactionLogDir())
}

// Cache returns the suggestion cache store, opening it on first use.
func (o *Organizer) Cache() (*suggestcache.Store, error) {
	if o.cache != nil {
		return o.cache, nil
	}
	store, err := suggestcache.Open(o.cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "organize", "open cache", "", err)
	}
	o.cache = store
	return store, nil
}

func (o *Organizer) folderPolicy() plan.FolderConflictPolicy {
	if o.cfg.Organize.OnFolderConflict == string(plan.FolderConflictRename) {
		return plan.FolderConflictRename
	}
	return plan.FolderConflictMerge
}

func (o *Organizer) buildStrategy(opts Options) (strategy.Strategy, error) {
	switch opts.Strategy {
	case strategy.NameExtension, "":
		extOpts := []strategy.ExtensionOption{}
		if opts.CategoriesFile != "" {
			categories, err := strategy.LoadCategoriesFile(opts.CategoriesFile)
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "organize", "load categories", opts.CategoriesFile, err)
			}
			extOpts = append(extOpts, strategy.WithCategories(categories))
		}
		return strategy.NewExtension(o.logger, extOpts...), nil
	case strategy.NamePattern:
		if opts.RulesFile == "" {
			return nil, services.Wrap(services.ErrConfiguration, "organize", "pattern strategy", "rules file required", nil)
		}
		rules, err := strategy.LoadRulesFile(opts.RulesFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "organize", "load rules", opts.RulesFile, err)
		}
		return strategy.NewPattern(o.logger, rules), nil
	case strategy.NameClassifier:
		return o.classifierStrategy()
	default:
		return nil, services.Wrap(services.ErrConfiguration, "organize", "strategy",
			fmt.Sprintf("unknown strategy %q (have: %s)", opts.Strategy, strings.Join(strategy.Names(), ", ")), nil)
	}
}

func (o *Organizer) classifierStrategy() (strategy.Strategy, error) {
	chain := o.cfg.ClassifierChain()
	if len(chain) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "organize", "classifier strategy",
			"no classifier configured", nil)
	}

	pipelineOpts := []suggest.PipelineOption{
		suggest.WithBatchSize(o.cfg.Suggestions.BatchSize),
		suggest.WithMaxParallel(o.cfg.Suggestions.MaxParallelBatches),
		suggest.WithModelLabel(chain[0].Model),
	}
	if o.cfg.Suggestions.CacheEnabled {
		store, err := o.Cache()
		if err != nil {
			return nil, err
		}
		pipelineOpts = append(pipelineOpts, suggest.WithCache(store, o.cfg.Suggestions.Fingerprint))
	}

	pipeline := suggest.NewPipeline(o.logger, classify.NewChain(o.logger, chain), pipelineOpts...)
	return strategy.NewClassifierStrategy(pipeline), nil
}
