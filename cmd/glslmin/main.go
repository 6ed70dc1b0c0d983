// Command glslmin minifies a batch of GLSL shaders.
//
// Usage:
//
//	glslmin [options] <shader.vert> <shader.frag> ...
//	cat shader.frag | glslmin [options]
//
// Options:
//
//	-o <file>               Write the JSON bundle to file (default: stdout)
//	-out-dir <dir>          Write every shader to <dir>/<name>.min instead
//	-config <file>          Use specific config file
//	-no-config              Ignore config files
//	-rewrite-all-globals    Rename uniforms and attributes too
//	-no-rename              Don't rename identifiers
//	-no-tree-shaking        Keep unreachable functions
//	-no-macros              Don't inline constant macros
//	-no-grouping            Don't merge declarations
//	-no-numbers             Don't shorten numeric literals
//	-no-keyword-macros      Don't abbreviate keywords with #define
//	-max-name-length <n>    Bound generated names (0 = unbounded)
//	-keep-names <names>     Comma-separated names to preserve
//	-watch                  Minify again whenever an input changes
//	-v                      Log every stage to stderr
//	-version                Print version and exit
//
// Inputs ending in .wgsl are compiled to GLSL ES first, one shader per
// entry point. All shaders of a run share one renaming, so a varying keeps
// the same short name in the vertex and the fragment shader.
//
// Config file:
//
//	glslmin looks for glslmin.json, .glslminrc, glslmin.toml or glslmin.yaml
//	in the directory of the first input and its parents. Config file options
//	are overridden by CLI flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/HugoDaniel/glslmin/internal/config"
	"github.com/HugoDaniel/glslmin/internal/logger"
	"github.com/HugoDaniel/glslmin/internal/minifier"
	"github.com/HugoDaniel/glslmin/internal/renamer"
	"github.com/HugoDaniel/glslmin/internal/source"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned when there is nothing to minify.
var errUsage = errors.New("no input files specified")

// cli holds the parsed command line.
type cli struct {
	outputFile        string
	outDir            string
	configFile        string
	noConfig          bool
	rewriteAllGlobals bool
	noRename          bool
	noTreeShaking     bool
	noMacros          bool
	noGrouping        bool
	noNumbers         bool
	noKeywordMacros   bool
	maxNameLength     int
	keepNames         string
	watch             bool
	verbose           bool
	showVersion       bool

	set map[string]bool // Flags given explicitly
}

func parseFlags(args []string, stderr io.Writer) (*cli, []string, error) {
	var c cli
	fs := flag.NewFlagSet("glslmin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&c.outputFile, "o", "", "Write the JSON bundle to `file`")
	fs.StringVar(&c.outDir, "out-dir", "", "Write every shader to `dir`/<name>.min")
	fs.StringVar(&c.configFile, "config", "", "Use specific config `file`")
	fs.BoolVar(&c.noConfig, "no-config", false, "Ignore config files")
	fs.BoolVar(&c.rewriteAllGlobals, "rewrite-all-globals", false, "Rename uniforms and attributes too")
	fs.BoolVar(&c.noRename, "no-rename", false, "Don't rename identifiers")
	fs.BoolVar(&c.noTreeShaking, "no-tree-shaking", false, "Keep unreachable functions")
	fs.BoolVar(&c.noMacros, "no-macros", false, "Don't inline constant macros")
	fs.BoolVar(&c.noGrouping, "no-grouping", false, "Don't merge declarations")
	fs.BoolVar(&c.noNumbers, "no-numbers", false, "Don't shorten numeric literals")
	fs.BoolVar(&c.noKeywordMacros, "no-keyword-macros", false, "Don't abbreviate keywords with #define")
	fs.IntVar(&c.maxNameLength, "max-name-length", 2, "Bound generated names to `n` characters (0 = unbounded)")
	fs.StringVar(&c.keepNames, "keep-names", "", "Comma-separated names to preserve")
	fs.BoolVar(&c.watch, "watch", false, "Minify again whenever an input changes")
	fs.BoolVar(&c.verbose, "v", false, "Log every stage to stderr")
	fs.BoolVar(&c.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "glslmin - GLSL batch minifier v%s\n\n", version)
		fmt.Fprintf(stderr, "Usage: glslmin [options] <shader.vert> <shader.frag> ...\n")
		fmt.Fprintf(stderr, "       cat shader.frag | glslmin [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nConfig file:\n")
		fmt.Fprintf(stderr, "  Searches for glslmin.json, .glslminrc, glslmin.toml or glslmin.yaml\n")
		fmt.Fprintf(stderr, "  in the input directory and its parents. CLI flags override config file settings.\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  glslmin scene.vert scene.frag -o shaders.json\n")
		fmt.Fprintf(stderr, "  glslmin -out-dir build/ -watch shaders/*.frag\n")
		fmt.Fprintf(stderr, "  glslmin -rewrite-all-globals pipeline.wgsl\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	c.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
	return &c, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c, inputs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if c.showVersion {
		fmt.Fprintf(stdout, "glslmin v%s (%s)\n", version, commit)
		return nil
	}

	if c.verbose {
		logger.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer logger.SetLogger(nil)
	}

	if len(inputs) == 0 {
		if isTerminal(stdin) {
			return errUsage
		}
		if c.watch {
			return fmt.Errorf("-watch needs input files")
		}
	}

	opts, err := c.options(inputs, stderr)
	if err != nil {
		return err
	}

	build := func() error {
		shaders, err := readInputs(inputs, stdin)
		if err != nil {
			return err
		}
		result, err := minifier.New(opts).MinifyBatch(source.Sources(shaders))
		if err != nil {
			return err
		}
		if err := c.write(shaders, result, stdout); err != nil {
			return err
		}
		printStats(stderr, len(shaders), result.Stats)
		return nil
	}

	if err := build(); err != nil {
		if !c.watch {
			return err
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	if !c.watch {
		return nil
	}
	return watch(ctx, inputs, build, stderr)
}

// options loads the config file and applies the CLI flags on top.
func (c *cli) options(inputs []string, stderr io.Writer) (minifier.Options, error) {
	var cfg *config.Config
	if !c.noConfig {
		var err error
		var configPath string
		if c.configFile != "" {
			cfg, err = config.LoadFile(c.configFile)
			if err != nil {
				return minifier.Options{}, fmt.Errorf("loading config file %s: %w", c.configFile, err)
			}
			configPath = c.configFile
		} else {
			startDir, _ := os.Getwd()
			if len(inputs) > 0 {
				startDir = filepath.Dir(inputs[0])
			}
			cfg, configPath, err = config.Load(startDir)
			if err != nil {
				return minifier.Options{}, fmt.Errorf("loading config: %w", err)
			}
		}
		if configPath != "" {
			logger.Logger().Info("using config", "path", configPath)
		}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	var keep []string
	if c.keepNames != "" {
		for _, name := range strings.Split(c.keepNames, ",") {
			if name = strings.TrimSpace(name); name != "" {
				keep = append(keep, name)
			}
		}
	}

	merge := config.MergeOptions{
		NoRename:        c.noRename,
		NoTreeShaking:   c.noTreeShaking,
		NoMacros:        c.noMacros,
		NoGrouping:      c.noGrouping,
		NoNumbers:       c.noNumbers,
		NoKeywordMacros: c.noKeywordMacros,
		KeepNames:       keep,
	}
	// Only flags given explicitly override the config file
	if c.set["rewrite-all-globals"] {
		merge.RewriteAllGlobals = &c.rewriteAllGlobals
	}
	if c.set["max-name-length"] {
		if c.maxNameLength < 0 {
			return minifier.Options{}, fmt.Errorf("-max-name-length must not be negative")
		}
		merge.MaxNameLength = &c.maxNameLength
	}
	return cfg.Merge(merge), nil
}

func readInputs(inputs []string, stdin io.Reader) ([]source.Shader, error) {
	if len(inputs) > 0 {
		return source.ReadFiles(inputs)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return []source.Shader{{Name: "stdin", Source: string(data)}}, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ----------------------------------------------------------------------------
// Output
// ----------------------------------------------------------------------------

// bundleShader is one shader of the JSON bundle.
type bundleShader struct {
	Name  string `json:"name"`
	Stage string `json:"stage,omitempty"`
	Code  string `json:"code"`
}

// bundle is the JSON document glslmin writes. Globals keeps the
// uniform then attribute order of the batch.
type bundle struct {
	Shaders []bundleShader    `json:"shaders"`
	Globals []renamer.Pair    `json:"globals"`
	Members map[string]string `json:"members"`
}

func newBundle(shaders []source.Shader, result *minifier.Result) bundle {
	b := bundle{
		Globals: append([]renamer.Pair{}, result.Globals...),
		Members: result.Members,
	}
	for i, s := range shaders {
		b.Shaders = append(b.Shaders, bundleShader{Name: s.Name, Stage: s.Stage, Code: result.Shaders[i]})
	}
	return b
}

func (c *cli) write(shaders []source.Shader, result *minifier.Result, stdout io.Writer) error {
	if c.outDir != "" {
		if err := os.MkdirAll(c.outDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for i, s := range shaders {
			path := filepath.Join(c.outDir, s.Name+".min")
			if err := os.WriteFile(path, []byte(result.Shaders[i]), 0644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		}
		if c.outputFile == "" {
			return nil
		}
	}

	data, err := json.MarshalIndent(newBundle(shaders, result), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if c.outputFile == "" {
		_, err = stdout.Write(data)
	} else {
		err = os.WriteFile(c.outputFile, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func printStats(w io.Writer, shaders int, stats minifier.Stats) {
	p := message.NewPrinter(language.English)
	ratio := 0.0
	if stats.OriginalSize > 0 {
		ratio = float64(stats.MinifiedSize) / float64(stats.OriginalSize) * 100
	}
	p.Fprintf(w, "Minified %d shader(s): %d -> %d bytes (%.1f%%)\n",
		shaders, stats.OriginalSize, stats.MinifiedSize, ratio)
}

// ----------------------------------------------------------------------------
// Watch mode
// ----------------------------------------------------------------------------

// watch calls build whenever one of the inputs is written or replaced,
// until ctx is done. Build errors are reported and watching goes on.
func watch(ctx context.Context, inputs []string, build func() error, stderr io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Directories are watched so that editors replacing a file by rename
	// are still seen.
	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	fmt.Fprintf(stderr, "Watching %d file(s)\n", len(watched))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[ev.Name] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Logger().Debug("input changed", "path", ev.Name, "op", ev.Op.String())
			if err := build(); err != nil {
				fmt.Fprintf(stderr, "error: %v\n", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watch error: %v\n", err)
		}
	}
}
