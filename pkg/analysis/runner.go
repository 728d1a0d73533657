package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
	"github.com/Sumatoshi-tech/codemetrics/pkg/extract"
	"github.com/Sumatoshi-tech/codemetrics/pkg/observability"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Parser turns file content into a Module tree.
type Parser interface {
	Parse(ctx context.Context, path string, content []byte) (*syntax.Node, error)
}

// Options configures a Runner.
type Options struct {
	DiscoverOptions

	// Workers bounds parallel parsing; zero uses one worker per CPU.
	Workers int
	// Cache stores parsed trees by content; nil disables caching.
	Cache cache.Store
	// Metrics records run statistics; nil disables recording.
	Metrics *observability.AnalysisMetrics
	// Logger receives per-file warnings; nil uses slog.Default.
	Logger *slog.Logger
}

// File is a parsed source file.
type File struct {
	Path   string
	Module *syntax.Node
}

// Summary describes a completed run.
type Summary struct {
	Files         int
	Methods       int
	ParseFailures int
	CacheHits     int64
	CacheMisses   int64
	Duration      time.Duration
}

// Runner discovers and parses source files in parallel.
type Runner struct {
	parser Parser
	opts   Options
}

// NewRunner creates a runner that parses with parser.
func NewRunner(parser Parser, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = max(1, runtime.NumCPU())
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Runner{parser: parser, opts: opts}
}

// Run discovers the files under each root and parses them on a bounded
// worker pool. Files that cannot be read or parsed are logged and skipped.
// The returned files keep discovery order.
func (r *Runner) Run(ctx context.Context, roots ...string) ([]File, Summary, error) {
	start := time.Now()

	var paths []string

	for _, root := range roots {
		found, err := Discover(root, r.opts.DiscoverOptions)
		if err != nil {
			return nil, Summary{}, err
		}

		paths = append(paths, found...)
	}

	var (
		parsed    = make([]*syntax.Node, len(paths))
		durations = make([]time.Duration, len(paths))
		failures  atomic.Int64
		hits      atomic.Int64
		misses    atomic.Int64
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Workers)

	for idx, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return fmt.Errorf("analyze %s: %w", path, err)
			}

			fileStart := time.Now()

			module, fromCache, err := r.parseFile(groupCtx, path)

			durations[idx] = time.Since(fileStart)

			switch {
			case err != nil && groupCtx.Err() != nil:
				return fmt.Errorf("analyze %s: %w", path, groupCtx.Err())
			case err != nil:
				failures.Add(1)
				r.opts.Logger.WarnContext(groupCtx, "skipping file", "path", path, "error", err)

				return nil
			case fromCache:
				hits.Add(1)
			default:
				misses.Add(1)
			}

			parsed[idx] = module

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, Summary{}, err
	}

	files := make([]File, 0, len(paths))
	methods := 0

	for idx, module := range parsed {
		if module == nil {
			continue
		}

		files = append(files, File{Path: paths[idx], Module: module})

		for range extract.Methods(module) {
			methods++
		}
	}

	summary := Summary{
		Files:         len(files),
		Methods:       methods,
		ParseFailures: int(failures.Load()),
		CacheHits:     hits.Load(),
		CacheMisses:   misses.Load(),
		Duration:      time.Since(start),
	}

	if r.opts.Cache == nil {
		summary.CacheHits, summary.CacheMisses = 0, 0
	}

	r.opts.Metrics.RecordRun(ctx, observability.AnalysisStats{
		Files:         int64(summary.Files),
		Methods:       int64(summary.Methods),
		ParseFailures: int64(summary.ParseFailures),
		CacheHits:     summary.CacheHits,
		CacheMisses:   summary.CacheMisses,
		FileDurations: durations,
	})

	r.opts.Logger.DebugContext(ctx, "analysis complete",
		"files", summary.Files, "methods", summary.Methods,
		"parse_failures", summary.ParseFailures, "duration", summary.Duration)

	return files, summary, nil
}

func (r *Runner) parseFile(ctx context.Context, path string) (*syntax.Node, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	if r.opts.Cache == nil {
		module, parseErr := r.parser.Parse(ctx, path, content)

		return module, false, parseErr
	}

	key := cache.NewKey(path, content)

	if data, ok := r.opts.Cache.Get(key); ok {
		module, decodeErr := syntax.Unmarshal(data)
		if decodeErr == nil {
			return module, true, nil
		}

		r.opts.Logger.DebugContext(ctx, "discarding cached tree", "path", path, "error", decodeErr)
	}

	module, err := r.parser.Parse(ctx, path, content)
	if err != nil {
		return nil, false, err
	}

	data, err := syntax.Marshal(module)
	if err == nil {
		err = r.opts.Cache.Put(key, data)
	}

	if err != nil {
		r.opts.Logger.DebugContext(ctx, "caching tree failed", "path", path, "error", err)
	}

	return module, false, nil
}

// Methods yields the function definitions of every file in order.
func Methods(files []File) iter.Seq[*syntax.Node] {
	return func(yield func(*syntax.Node) bool) {
		for _, file := range files {
			for method := range extract.Methods(file.Module) {
				if !yield(method) {
					return
				}
			}
		}
	}
}

// IsNotExist reports whether err is a missing analysis root.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNoSuchPath) || errors.Is(err, fs.ErrNotExist)
}
