// amdcjs rewrites top-level AMD define/require calls into CommonJS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phobologic/amdcjs/internal/discover"
	"github.com/phobologic/amdcjs/internal/lang"
	"github.com/phobologic/amdcjs/internal/model"
	"github.com/phobologic/amdcjs/internal/parse"
	"github.com/phobologic/amdcjs/internal/rewrite"
	"github.com/phobologic/amdcjs/internal/toon"
)

var version = "dev"

const defaultMaxFileSize = 1_000_000 // 1 MB

type options struct {
	write       bool
	list        bool
	report      bool
	exclude     []string
	maxFileSize int
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("amdcjs", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts        options
		exclude     string
		verbose     bool
		showVersion bool
	)

	fs.BoolVar(&opts.write, "w", false, "write result to source files instead of stdout")
	fs.BoolVar(&opts.write, "write", false, "write result to source files instead of stdout")
	fs.BoolVar(&opts.list, "l", false, "list files whose content would change")
	fs.BoolVar(&opts.list, "list", false, "list files whose content would change")
	fs.BoolVar(&opts.report, "report", false, "print a TOON report of rewritten call sites")
	fs.StringVar(&exclude, "x", "", "comma-separated gitignore-style patterns to skip")
	fs.StringVar(&exclude, "exclude", "", "comma-separated gitignore-style patterns to skip")
	fs.IntVar(&opts.maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&verbose, "v", false, "log every rewritten call site")
	fs.BoolVar(&verbose, "verbose", false, "log every rewritten call site")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "amdcjs %s\n", version)
		return nil
	}

	log := newLogger(stderr, verbose)
	defer func() { _ = log.Sync() }()
	rewrite.SetLogger(log.Named("rewrite"))

	for _, p := range strings.Split(exclude, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.exclude = append(opts.exclude, p)
		}
	}

	target := "."
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	js := lang.JavaScript
	query, err := js.GetSiteQuery()
	if err != nil {
		return fmt.Errorf("loading query: %w", err)
	}

	ctx := context.Background()

	if target == "-" {
		return runStdin(ctx, js, query, stdin, stdout)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("path: %w", err)
	}
	if !info.IsDir() {
		return runFile(ctx, js, query, target, opts, stdout)
	}
	return runDir(ctx, js, query, target, opts, log, stdout)
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

func runStdin(ctx context.Context, js *lang.Language, query *sitter.Query, stdin io.Reader, stdout io.Writer) error {
	source, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	res, err := rewrite.Source(ctx, js.NewParser(), query, source, "<stdin>")
	if err != nil {
		return err
	}
	_, _ = stdout.Write(res.Source)
	return nil
}

func runFile(ctx context.Context, js *lang.Language, query *sitter.Query, path string, opts options, stdout io.Writer) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := rewrite.Source(ctx, js.NewParser(), query, source, path)
	if err != nil {
		return err
	}

	if opts.report {
		r := &model.Report{
			Root:  filepath.Base(path),
			Files: []model.FileResult{fileResult(path, res, nil)},
		}
		_, _ = fmt.Fprintln(stdout, toon.Encode(r))
	} else if opts.list {
		if res.Changed() {
			_, _ = fmt.Fprintln(stdout, path)
		}
	} else if !opts.write {
		_, _ = stdout.Write(res.Source)
	}

	if opts.write && res.Changed() {
		if err := writeFile(path, res.Source); err != nil {
			return err
		}
	}
	return nil
}

func runDir(ctx context.Context, js *lang.Language, query *sitter.Query, root string, opts options, log *zap.Logger, stdout io.Writer) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	files, err := discover.Files(root, opts.exclude)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no javascript files found")
	}

	files = filterBySize(root, files, opts.maxFileSize, log)

	results := rewriteConcurrent(ctx, js, query, root, files, opts.write, log)

	r := &model.Report{Root: filepath.Base(root), Files: results}
	if opts.report {
		_, _ = fmt.Fprintln(stdout, toon.Encode(r))
		return nil
	}
	if !opts.write || opts.list {
		for _, path := range r.Changed() {
			_, _ = fmt.Fprintln(stdout, path)
		}
	}
	return nil
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, log *zap.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			log.Warn("skipped large file", zap.String("file", f.Path), zap.Int("limit", maxSize))
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func rewriteConcurrent(ctx context.Context, js *lang.Language, query *sitter.Query, root string, files []discover.FileEntry, write bool, log *zap.Logger) []model.FileResult {
	type result struct {
		index int
		fr    model.FileResult
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			parser := js.NewParser()

			for idx := range work {
				f := files[idx]
				absPath := filepath.Join(root, f.Path)

				res, err := rewriteFile(ctx, parser, query, absPath, f.Path, write)
				switch {
				case isSyntaxError(err):
					log.Warn("skipped unparseable file", zap.String("file", f.Path), zap.Error(err))
				case err != nil:
					log.Error("rewrite failed", zap.String("file", f.Path), zap.Error(err))
				}
				results <- result{index: idx, fr: fileResult(f.Path, res, err)}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]model.FileResult, len(files))
	for r := range results {
		indexed[r.index] = r.fr
	}
	return indexed
}

func rewriteFile(ctx context.Context, parser *sitter.Parser, query *sitter.Query, absPath, relPath string, write bool) (*rewrite.Result, error) {
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading: %w", err)
	}
	res, err := rewrite.Source(ctx, parser, query, source, relPath)
	if err != nil {
		return nil, err
	}
	if write && res.Changed() {
		if err := writeFile(absPath, res.Source); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func fileResult(path string, res *rewrite.Result, err error) model.FileResult {
	fr := model.FileResult{Path: path, Status: model.Unchanged}
	switch {
	case err != nil:
		fr.Status = model.Failed
		fr.Err = err
	case res.Changed():
		fr.Status = model.Rewritten
		fr.Sites = res.Sites
	}
	return fr
}

// writeFile replaces path's content, keeping its permissions.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// isSyntaxError reports whether err came from an unparseable source.
func isSyntaxError(err error) bool {
	return errors.Is(err, parse.ErrSyntax)
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-x": true, "--x": true,
	"-exclude": true, "--exclude": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 1 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
