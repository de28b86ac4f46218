package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/amterp/color"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rhansen/reactor"
	"github.com/rhansen/reactor/internal/command"
	"github.com/rhansen/reactor/internal/logging"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed reactor.1.in
var man []byte

var (
	cyanf    = color.New(color.FgCyan).SprintfFunc()
	hiblackf = color.New(color.FgHiBlack).SprintfFunc()
	boldf    = color.New(color.Bold).SprintfFunc()
)

type outputFn = func(ctx context.Context, w io.Writer, p *reactor.Project) error

type config struct {
	dirs      []string
	workspace bool
	keepGoing bool
	overrides reactor.OverrideMap
	output    *outputFn
}

func ver() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "(devel)" {
		return ""
	}
	return bi.Main.Version
}

func showMan(ctx context.Context) error {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("failed to fetch Go build information")
	}
	date := ""
	for _, s := range bi.Settings {
		if s.Key == "vcs.time" {
			when, err := time.Parse(time.RFC3339, s.Value)
			if err != nil {
				return fmt.Errorf("failed to parse vcs.time %q: %w", s.Value, err)
			}
			date = when.Format(time.DateOnly)
		}
	}
	man := bytes.ReplaceAll(man, []byte("%DATE%"), []byte(date))
	man = bytes.ReplaceAll(man, []byte("%VERSION%"), []byte(ver()))
	return command.Feed(ctx, bytes.NewReader(man), ".", "man", "-l", "-")
}

var allOutputFuncs = [...]outputFn{
	outputTree,
	outputRaw,
	outputDot,
	outputYaml,
}

var allOutput = map[string]*outputFn{
	"tree": &allOutputFuncs[0],
	"raw":  &allOutputFuncs[1],
	"dot":  &allOutputFuncs[2],
	"yaml": &allOutputFuncs[3],
}

// outputTree prints the local projects p needs as an indented tree, in declaration order.
func outputTree(ctx context.Context, w io.Writer, p *reactor.Project) error {
	// Fail on cycles before printing anything.
	if _, err := p.SelfWithLocalDeps(); err != nil {
		return err
	}
	moduleMsg := cyanf(" (module)")
	seenMsg := hiblackf(" (repeat)")
	seen := mapset.NewThreadUnsafeSet[*reactor.Project]()
	var visit func(q *reactor.Project, kind reactor.EdgeKind, indent int)
	visit = func(q *reactor.Project, kind reactor.EdgeKind, indent int) {
		wasSeen := !seen.Add(q)
		fmt.Fprint(w, strings.Repeat("  ", indent))
		if wasSeen {
			fmt.Fprintf(w, "%s%s", hiblackf("%v", q), seenMsg)
		} else {
			fmt.Fprint(w, q)
		}
		if kind == reactor.EdgeModule {
			fmt.Fprint(w, moduleMsg)
		}
		fmt.Fprint(w, "\n")
		if wasSeen {
			return
		}
		for child, kind := range reactor.LocalEdges(q) {
			visit(child, kind, indent+1)
		}
	}
	visit(p, 0, 0)
	return nil
}

// outputRaw prints the projects to build, in build order.
func outputRaw(ctx context.Context, w io.Writer, p *reactor.Project) error {
	closure, err := p.SelfWithLocalDeps()
	if err != nil {
		return err
	}
	for _, q := range closure {
		fmt.Fprintf(w, "%v\t%s\n", q, q.Dir())
	}
	return nil
}

// outputDot prints the local projects reachable from p as a Graphviz digraph.
func outputDot(ctx context.Context, w io.Writer, p *reactor.Project) error {
	type edge struct {
		from, to reactor.ProjectId
		kind     reactor.EdgeKind
	}
	var mu sync.Mutex
	nodes := map[reactor.ProjectId]*reactor.Project{}
	var edges []edge
	err := reactor.WalkWorkspace(ctx, p,
		func(ctx context.Context, q *reactor.Project) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			nodes[q.Id()] = q
			return true, nil
		},
		func(ctx context.Context, from, to *reactor.Project, kind reactor.EdgeKind) error {
			mu.Lock()
			defer mu.Unlock()
			edges = append(edges, edge{from.Id(), to.Id(), kind})
			return nil
		})
	if err != nil {
		return err
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if c := reactor.ProjectIdCompare(a.from, b.from); c != 0 {
			return c
		}
		return reactor.ProjectIdCompare(a.to, b.to)
	})
	fmt.Fprint(w, "digraph {\n")
	fmt.Fprint(w, "  node [style=filled,fillcolor=\"white\",shape=box];\n")
	for _, id := range slices.SortedFunc(maps.Keys(nodes), reactor.ProjectIdCompare) {
		attrs := []string{fmt.Sprintf("tooltip=%q", nodes[id].Dir())}
		if id == p.Id() {
			attrs = append(attrs, "fillcolor=\"black\"", "fontcolor=\"white\"")
		}
		fmt.Fprintf(w, "  %q [%s];\n", id, strings.Join(attrs, ","))
	}
	for _, e := range edges {
		attrs := []string{fmt.Sprintf("class=%q", e.kind)}
		if e.kind == reactor.EdgeModule {
			attrs = append(attrs, "style=\"dashed\"")
		}
		fmt.Fprintf(w, "  %q -> %q [%s];\n", e.from, e.to, strings.Join(attrs, ","))
	}
	fmt.Fprint(w, "}\n")
	return nil
}

type yamlProject struct {
	Id        string   `yaml:"id"`
	Version   string   `yaml:"version"`
	Dir       string   `yaml:"dir"`
	Parent    string   `yaml:"parent,omitempty"`
	Modules   []string `yaml:"modules,omitempty"`
	LocalDeps []string `yaml:"localDependencies,omitempty"`
}

type yamlReport struct {
	Entry      string            `yaml:"entry"`
	Root       string            `yaml:"root,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
	BuildOrder []string          `yaml:"buildOrder"`
	Projects   []yamlProject     `yaml:"projects"`
	Skipped    []string          `yaml:"skipped,omitempty"`
}

func newYamlProject(q *reactor.Project) yamlProject {
	yp := yamlProject{
		Id:      q.Id().String(),
		Version: q.Version(),
		Dir:     q.Dir(),
		Modules: q.Modules(),
	}
	if pid, ok := q.ParentId(); ok {
		yp.Parent = pid.String()
	}
	for d, kind := range reactor.LocalEdges(q) {
		if kind == reactor.EdgeDependency {
			yp.LocalDeps = append(yp.LocalDeps, d.Id().String())
		}
	}
	return yp
}

// outputYaml prints a report of p's workspace.
func outputYaml(ctx context.Context, w io.Writer, p *reactor.Project) error {
	closure, err := p.SelfWithLocalDeps()
	if err != nil {
		return err
	}
	r := yamlReport{Entry: p.Id().String()}
	for _, q := range closure {
		r.BuildOrder = append(r.BuildOrder, q.Id().String())
	}
	if ws := p.Workspace(); ws != nil {
		r.Root = ws.Root().Id().String()
		r.Properties = ws.Properties()
		for q := range ws.All() {
			r.Projects = append(r.Projects, newYamlProject(q))
		}
		for _, err := range ws.Skipped() {
			r.Skipped = append(r.Skipped, err.Error())
		}
	} else {
		r.Projects = []yamlProject{newYamlProject(p)}
	}
	data, err := yaml.Marshal(&r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func run(ctx context.Context, cfg *config, dir string, w io.Writer) error {
	opts := []reactor.Option{reactor.WithKeepGoing(cfg.keepGoing)}
	if len(cfg.overrides) > 0 {
		opts = append(opts, reactor.WithOverrides(reactor.LayeredOverrides(cfg.overrides, reactor.EnvOverrides())))
	}
	l := reactor.NewLoader(opts...)
	load := l.Load
	if cfg.workspace {
		load = l.LoadWorkspace
	}
	p, err := load(ctx, dir)
	if err != nil {
		return err
	}
	slog.Log(ctx, logging.LevelVerbose, "loaded project", "dir", dir, "project", p)
	return (*cfg.output)(ctx, w, p)
}

// runAll runs one independent session per directory, in parallel, and writes each session's
// output to w in argument order.  It returns the number of failed sessions.
func runAll(ctx context.Context, cfg *config, w io.Writer) int {
	outs := make([]bytes.Buffer, len(cfg.dirs))
	errs := make([]error, len(cfg.dirs))
	var gr errgroup.Group
	gr.SetLimit(runtime.GOMAXPROCS(0))
	for i, dir := range cfg.dirs {
		gr.Go(func() error {
			errs[i] = run(ctx, cfg, dir, &outs[i])
			return nil
		})
	}
	gr.Wait()
	failed := 0
	for i, dir := range cfg.dirs {
		if errs[i] != nil {
			slog.ErrorContext(ctx, "failed", "dir", dir, "error", errs[i])
			failed++
			continue
		}
		if len(cfg.dirs) > 1 {
			fmt.Fprintf(w, "%s\n", boldf("# %s", dir))
		}
		if _, err := outs[i].WriteTo(w); err != nil {
			slog.ErrorContext(ctx, "failed to write output", "error", err)
			failed++
		}
	}
	return failed
}

var slogLevel = func() *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(logging.LevelInfo)
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	return lvl
}()

func choiceFlag[T comparable](fs *flag.FlagSet, p *T, name string, choices map[string]T, dflt string, usage string) {
	cstr := strings.Join(slices.Sorted(maps.Keys(choices)), ", ")
	v, ok := choices[dflt]
	if !ok {
		panic(fmt.Errorf("invalid default for %v option: %v", dflt, name))
	}
	// *p may be a global such as color.NoColor; leave it untouched when it already holds the
	// default.
	if *p != v {
		*p = v
	}
	usage += fmt.Sprintf(" (one of: %v; default: %v)", cstr, dflt)
	fs.Func(name, usage, func(arg string) error {
		if arg == "" {
			arg = dflt
		}
		v, ok := choices[arg]
		if !ok {
			return fmt.Errorf("expected one of: %v", cstr)
		}
		*p = v
		return nil
	})
}

// parseOverride parses a -D argument of the form name=value.
func parseOverride(ov reactor.OverrideMap, arg string) error {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", arg)
	}
	if !slices.Contains(reactor.CIFriendlyPlaceholders, name) {
		return fmt.Errorf("%q is not a version placeholder; expected one of: %v",
			name, strings.Join(reactor.CIFriendlyPlaceholders, ", "))
	}
	ov[name] = value
	return nil
}

// newFlagSet registers the flags that configure cfg.  The -man, -help and -version flags are
// registered separately because they exit the process.
func newFlagSet(cfg *config, errorHandling flag.ErrorHandling) *flag.FlagSet {
	fs := flag.NewFlagSet("reactor", errorHandling)
	bumpLogLevel := func(lower bool) {
		slog.Debug("log level pre-change", "level", slogLevel.Level())
		slogLevel.Set(logging.BumpLevel(slogLevel.Level(), lower))
		slog.Debug("log level post-change", "level", logging.LevelName(slogLevel.Level()))
	}
	verbosity := func(lower bool) func(string) error {
		return func(arg string) error {
			switch arg {
			case "", "true":
				bumpLogLevel(lower)
			default:
				lvl, err := logging.StringToLevel(arg)
				if err != nil {
					return err
				}
				slogLevel.Set(lvl)
			}
			return nil
		}
	}
	fs.BoolFunc("v", "Increase log verbosity, or set it to the given `level`.", verbosity(true))
	fs.BoolFunc("q", "Decrease log verbosity, or set it to the given `level`.", verbosity(false))
	colorChoices := map[string]bool{
		"auto":   color.NoColor,
		"never":  true,
		"always": false,
	}
	choiceFlag(fs, &color.NoColor, "color", colorChoices, "auto",
		"Output colors according to `mode`.")
	choiceFlag(fs, &cfg.output, "format", allOutput, "tree",
		"Print the projects according to `mode`.")
	fs.BoolVar(&cfg.workspace, "workspace", true,
		"Discover the whole workspace.  If false, a project is loaded on its own unless its version needs the workspace root's properties.")
	fs.BoolVar(&cfg.keepGoing, "keep-going", false,
		"Skip modules with a missing or malformed descriptor instead of failing.")
	cfg.overrides = reactor.OverrideMap{}
	fs.Func("D", "Override a version placeholder with a `name=value` pair.  May be repeated.  Takes precedence over the environment.",
		func(arg string) error { return parseOverride(cfg.overrides, arg) })
	return fs
}

func parseFlags(ctx context.Context) *config {
	cfg := &config{}
	fs := newFlagSet(cfg, flag.ExitOnError)
	fs.BoolFunc("man", "Show the usage manual and exit.", func(_ string) error {
		if err := showMan(ctx); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
		return nil
	})
	help := func(string) error {
		fs.SetOutput(os.Stdout)
		fs.Usage()
		os.Exit(0)
		return nil
	}
	helpUsage := "Print usage information and exit."
	fs.BoolFunc("h", helpUsage, help)
	fs.BoolFunc("help", helpUsage, help)
	fs.BoolFunc("version", "Print the version and exit.", func(string) error {
		v := ver()
		if v == "" {
			log.Fatal("the Go build information is unavailable; try passing the \"-buildvcs=true\" build option to go")
		}
		fmt.Printf("%s\n", v)
		os.Exit(0)
		return nil
	})
	fs.Parse(os.Args[1:])
	cfg.dirs = fs.Args()
	if len(cfg.dirs) == 0 {
		cfg.dirs = []string{"."}
	}
	for i, d := range cfg.dirs {
		cfg.dirs[i] = filepath.Clean(d)
	}
	return cfg
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := parseFlags(ctx)
	if failed := runAll(ctx, cfg, os.Stdout); failed > 0 {
		os.Exit(1)
	}
}
