// Command sketchify turns photos into tracing sheets on disk.
//
// Usage:
//
//	sketchify [flags] image...
//
// Each image produces <name>_original, <name>_layer1, <name>_layer2 and
// <name>_shaded in the output directory. Defaults come from the same
// SKETCH_MCP_* environment variables as the MCP server; flags override them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/trace-sketch-mcp/internal/config"
	"github.com/ironsheep/trace-sketch-mcp/internal/imaging"
	"github.com/ironsheep/trace-sketch-mcp/internal/logging"
	"github.com/ironsheep/trace-sketch-mcp/internal/sketch"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

type options struct {
	out       string
	format    string
	quality   int
	rows      int
	cols      int
	grid      bool
	labels    bool
	jobs      int
	logLevel  string
	logFormat string
	version   bool
}

// run executes the command and returns the process exit code: 0 on
// success, 1 when any image failed, 2 on usage or configuration errors.
func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(getenv)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 2
	}

	var o options
	fs := flag.NewFlagSet("sketchify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.out, "out", cfg.OutputDir, "output directory")
	fs.StringVar(&o.format, "format", string(cfg.Format), "output format: jpeg or png")
	fs.IntVar(&o.quality, "quality", cfg.JPEGQuality, "JPEG quality 1-100")
	fs.IntVar(&o.rows, "rows", cfg.Grid.Rows, "tracing grid rows")
	fs.IntVar(&o.cols, "cols", cfg.Grid.Cols, "tracing grid columns")
	fs.BoolVar(&o.grid, "grid", false, "draw the tracing grid on the saved layers")
	fs.BoolVar(&o.labels, "labels", false, "number grid rows and columns (implies -grid)")
	fs.IntVar(&o.jobs, "j", runtime.NumCPU(), "images processed concurrently")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides "+config.EnvLogLevel+")")
	fs.StringVar(&o.logFormat, "log-format", cfg.LogFormat, "log format: console or json")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: sketchify [flags] image...")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "sketchify %s (engine %s)\n", Version, newEngine().Name())
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		if level, err = logging.ParseLevel(o.logLevel); err != nil {
			fmt.Fprintf(stderr, "invalid -log-level: %v\n", err)
			return 2
		}
	}
	logger, err := logging.New(stderr, level, o.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -log-format: %v\n", err)
		return 2
	}

	f, err := imaging.ParseFormat(o.format)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -format: %v\n", err)
		return 2
	}
	if o.quality < 1 || o.quality > 100 {
		fmt.Fprintf(stderr, "invalid -quality %d: must be in 1..100\n", o.quality)
		return 2
	}
	grid := sketch.GridSpec{Rows: o.rows, Cols: o.cols}
	if err := grid.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid grid: %v\n", err)
		return 2
	}

	pipeline, err := sketch.New(cfg.Params, sketch.WithLogger(logger), sketch.WithEngine(newEngine()))
	if err != nil {
		fmt.Fprintf(stderr, "invalid parameters: %v\n", err)
		return 2
	}

	store := &imaging.Store{Dir: o.out, Format: f, Quality: o.quality}
	if o.grid || o.labels {
		store.Grid = &imaging.GridOptions{Labels: o.labels}
	}

	b := &batch{
		pipeline:   pipeline,
		store:      store,
		grid:       grid,
		extensions: cfg.Extensions,
		cache:      imaging.NewImageCache(),
		log:        logger,
	}
	failed := b.run(fs.Args(), o.jobs, stdout)
	if failed > 0 {
		logger.Error().Int("failed", failed).Int("total", fs.NArg()).Msg("some images could not be processed")
		return 1
	}
	return 0
}

// batch processes a list of images with a shared pipeline.
type batch struct {
	pipeline   *sketch.Pipeline
	store      *imaging.Store
	grid       sketch.GridSpec
	extensions []string
	cache      *imaging.ImageCache
	log        zerolog.Logger
}

// run processes paths with at most jobs in flight, printing one line per
// saved sheet to out. It returns the number of failures.
func (b *batch) run(paths []string, jobs int, out io.Writer) int {
	if jobs < 1 {
		jobs = 1
	}
	sem := make(chan struct{}, jobs)
	ids := sheetIDs(paths)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			set, err := b.process(path, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				b.log.Error().Err(err).Str("path", path).Msg("failed")
				return
			}
			b.log.Info().Str("path", path).Str("id", set.ID).Dur("elapsed", time.Since(start)).Msg("sheet saved")
			fmt.Fprintf(out, "%s\t%s\n", path, set.Layer1)
		}(path, ids[i])
	}
	wg.Wait()
	return failed
}

// process builds and saves the sheet for one image under id.
func (b *batch) process(path, id string) (*imaging.SavedSet, error) {
	if err := imaging.CheckExtension(path, b.extensions); err != nil {
		return nil, err
	}
	img, err := b.cache.Load(path)
	if err != nil {
		return nil, err
	}
	// Each source is used once.
	defer b.cache.Evict(path)

	res, err := b.pipeline.Run(img, b.grid)
	if err != nil {
		return nil, err
	}
	return b.store.SaveResult(id, res)
}

// sheetID derives the output prefix from the source file name.
func sheetID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sheetIDs assigns each path a prefix that is unique within the batch.
// Repeated stems get _2, _3, ... in argument order. Comparison ignores case
// so that case-insensitive file systems cannot merge two sheets either.
func sheetIDs(paths []string) []string {
	ids := make([]string, len(paths))
	used := make(map[string]bool, len(paths))
	for i, path := range paths {
		base := sheetID(path)
		id := base
		for n := 2; used[strings.ToLower(id)]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		used[strings.ToLower(id)] = true
		ids[i] = id
	}
	return ids
}
