package suggest

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"curator/internal/classify"
	"curator/internal/logging"
	"curator/internal/paths"
	"curator/internal/plan"
	"curator/internal/services"
	"curator/internal/suggestcache"
)

const defaultBatchTimeout = 2 * time.Minute

// Pipeline turns a directory tree into classifier-backed move proposals. Files
// are scanned, batched, and classified with a bounded number of batches in
// flight; cached suggestions short-circuit the classifier entirely.
type Pipeline struct {
	classifier      classify.Classifier
	cache           *suggestcache.Store
	logger          *slog.Logger
	batchSize       int
	maxParallel     int
	batchTimeout    time.Duration
	fingerprintMode string
	model           string
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithCache enables fingerprint-keyed caching of classifier results.
func WithCache(cache *suggestcache.Store, fingerprintMode string) PipelineOption {
	return func(p *Pipeline) {
		p.cache = cache
		p.fingerprintMode = fingerprintMode
	}
}

// WithBatchSize sets how many files are sent per classifier call.
func WithBatchSize(size int) PipelineOption {
	return func(p *Pipeline) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithMaxParallel bounds how many batches are classified concurrently.
func WithMaxParallel(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxParallel = n
		}
	}
}

// WithBatchTimeout caps how long one classifier batch may take. A batch that
// exceeds the budget is skipped, not fatal.
func WithBatchTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.batchTimeout = d
		}
	}
}

// WithModelLabel tags cached entries with the model that produced them.
func WithModelLabel(model string) PipelineOption {
	return func(p *Pipeline) {
		p.model = model
	}
}

// NewPipeline wires a suggestion pipeline around a classifier.
func NewPipeline(logger *slog.Logger, classifier classify.Classifier, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		classifier:   classifier,
		logger:       logging.NewComponentLogger(logger, "suggest"),
		batchSize:    8,
		maxParallel:  1,
		batchTimeout: defaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Suggest scans root and returns one proposed move per classified file.
// Hidden files and hidden directories are never scanned. Proposals carry the
// classifier's confidence and stay in the proposed state until filtered.
func (p *Pipeline) Suggest(ctx context.Context, root string) ([]plan.Operation, error) {
	normalizedRoot, err := paths.Normalize(root)
	if err != nil {
		return nil, services.Wrap(services.ErrPlanValidation, "suggest", "scan", root, err)
	}

	files, err := p.collect(normalizedRoot)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "suggest", "scan", normalizedRoot, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	cached, pending := p.splitCached(ctx, normalizedRoot, files)
	p.logger.Info("scan complete",
		logging.Int("files", len(files)),
		logging.Int("cached", len(cached)),
		logging.Int("pending", len(pending)))

	classified, err := p.classifyAll(ctx, normalizedRoot, pending)
	if err != nil {
		return nil, err
	}

	suggestions := append(cached, classified...)
	ops := make([]plan.Operation, 0, len(suggestions))
	for _, suggestion := range suggestions {
		op, ok := p.toOperation(normalizedRoot, suggestion)
		if !ok {
			continue
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (p *Pipeline) collect(root string) ([]classify.FileInfo, error) {
	var files []classify.FileInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, classify.FileInfo{
			Path:      rel,
			Name:      name,
			Extension: filepath.Ext(name),
			Size:      info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// splitCached separates files with a cache hit from those that still need the
// classifier.
func (p *Pipeline) splitCached(ctx context.Context, root string, files []classify.FileInfo) (cached []classify.Suggestion, pending []classify.FileInfo) {
	if p.cache == nil {
		return nil, files
	}
	for _, file := range files {
		fingerprint, err := suggestcache.Fingerprint(filepath.Join(root, file.Path), p.fingerprintMode)
		if err != nil {
			pending = append(pending, file)
			continue
		}
		suggestion, ok, err := p.cache.Get(ctx, fingerprint)
		if err != nil {
			p.logger.Warn("cache lookup failed", logging.String("path", file.Path), logging.Error(err))
			pending = append(pending, file)
			continue
		}
		if !ok {
			pending = append(pending, file)
			continue
		}
		suggestion.Source = file.Path
		cached = append(cached, suggestion)
	}
	return cached, pending
}

func (p *Pipeline) classifyAll(ctx context.Context, root string, files []classify.FileInfo) ([]classify.Suggestion, error) {
	if len(files) == 0 {
		return nil, nil
	}

	batches := make([][]classify.FileInfo, 0, (len(files)+p.batchSize-1)/p.batchSize)
	for start := 0; start < len(files); start += p.batchSize {
		end := start + p.batchSize
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}

	results := make([][]classify.Suggestion, len(batches))
	var fatal error
	var fatalOnce sync.Once

	sem := make(chan struct{}, p.maxParallel)
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(index int, batch []classify.FileInfo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			batchCtx, cancel := context.WithTimeout(services.WithBatch(ctx, index+1), p.batchTimeout)
			defer cancel()

			suggestions, err := p.classifier.ClassifyBatch(batchCtx, root, batch)
			if err != nil {
				if services.IsFatal(err) {
					fatalOnce.Do(func() { fatal = err })
					return
				}
				// One slow or failing batch costs only its own files.
				p.logger.Warn("batch skipped",
					logging.Int("batch", index+1),
					logging.Int("files", len(batch)),
					logging.Error(err))
				return
			}
			results[index] = suggestions
		}(i, batch)
	}
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}

	var all []classify.Suggestion
	for _, suggestions := range results {
		for _, suggestion := range suggestions {
			p.remember(ctx, root, suggestion)
			all = append(all, suggestion)
		}
	}
	return all, nil
}

func (p *Pipeline) remember(ctx context.Context, root string, suggestion classify.Suggestion) {
	if p.cache == nil || suggestion.Source == "" {
		return
	}
	fingerprint, err := suggestcache.Fingerprint(filepath.Join(root, suggestion.Source), p.fingerprintMode)
	if err != nil {
		return
	}
	if err := p.cache.Put(ctx, fingerprint, p.model, suggestion); err != nil {
		p.logger.Warn("cache store failed", logging.String("path", suggestion.Source), logging.Error(err))
	}
}

// toOperation resolves one suggestion into an absolute proposed move. A
// suggestion whose destination escapes the root is dropped.
func (p *Pipeline) toOperation(root string, suggestion classify.Suggestion) (plan.Operation, bool) {
	if suggestion.Source == "" || suggestion.Destination == "" {
		return plan.Operation{}, false
	}
	destination := suggestion.Destination
	if suggestion.SuggestedFilename != "" {
		destination = filepath.Join(filepath.Dir(destination), suggestion.SuggestedFilename)
	}

	source := filepath.Join(root, filepath.FromSlash(suggestion.Source))
	resolved, err := paths.ResolveWithinRoot(root, filepath.Join(root, filepath.FromSlash(destination)))
	if err != nil {
		p.logger.Warn("suggestion escapes root, dropped",
			logging.String("source", suggestion.Source),
			logging.String("destination", destination))
		return plan.Operation{}, false
	}

	op := plan.NewFileMove(source, resolved)
	op.Confidence = suggestion.Confidence
	op.Reasoning = suggestion.Reasoning
	if suggestion.Classification != "" && op.Reasoning == "" {
		op.Reasoning = suggestion.Classification
	}
	return op, true
}
