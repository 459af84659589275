// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pubpublica/pubctl/internal/config"
	"github.com/pubpublica/pubctl/internal/dispatch"
	"github.com/pubpublica/pubctl/internal/issue"
	"github.com/pubpublica/pubctl/internal/runtime"
	"github.com/pubpublica/pubctl/pkg/pubconfig"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every cobra handler receives an App and builds
	// its workspace through it.
	App struct {
		Config   ConfigProvider
		Registry *runtime.Registry
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
		getwd    func() (string, error)
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Registry *runtime.Registry
		Stdin    io.Reader
		Stdout   io.Writer
		Stderr   io.Writer
		Getwd    func() (string, error)
	}

	// ConfigProvider loads pubctl settings using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		verbose      bool
		configPath   string
		documentPath string
		rootPath     string
	}

	// workspace is the loaded settings of one command invocation.
	workspace struct {
		cfg     *config.Config
		root    string
		docPath string
		verbose bool
		logger  *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	return &App{
		Config:   deps.Config,
		Registry: deps.Registry,
		stdin:    deps.Stdin,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		getwd:    deps.Getwd,
	}
}

// loadWorkspace loads pubctl settings and resolves the repository root.
// --pc-root wins over the root setting; --pc-document over the document
// setting.
func (a *App) loadWorkspace(ctx context.Context, flags *rootFlagValues) (*workspace, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}

	base := wd
	if flags.rootPath != "" {
		base = absFrom(wd, flags.rootPath)
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		BaseDir:        base,
	})
	if err != nil {
		return nil, err
	}

	root := base
	if flags.rootPath == "" {
		if root, err = cfg.ResolveRoot(wd); err != nil {
			return nil, err
		}
	}

	docPath := cfg.DocumentPath(root)
	if flags.documentPath != "" {
		docPath = absFrom(wd, flags.documentPath)
	}

	verbose := flags.verbose || cfg.UI.Verbose
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "pubctl",
		Level:  level,
	})
	logger.Debug("workspace loaded", "root", root, "settings", cfg.Source, "document", docPath)

	return &workspace{
		cfg:     cfg,
		root:    root,
		docPath: docPath,
		verbose: verbose,
		logger:  logger,
	}, nil
}

// dispatcher builds a dispatcher for the workspace. An empty override uses
// the default_runtime setting.
func (a *App) dispatcher(ws *workspace, runtimeOverride string) (*dispatch.Dispatcher, error) {
	name := runtimeOverride
	if name == "" {
		name = ws.cfg.DefaultRuntime.String()
	}
	mode, err := runtime.ParseMode(name)
	if err != nil {
		return nil, err
	}

	opts := []dispatch.Option{
		dispatch.WithMode(mode),
		dispatch.WithLogger(ws.logger),
		dispatch.WithIO(a.stdin, a.stdout, a.stderr),
	}
	if a.Registry != nil {
		opts = append(opts, dispatch.WithRegistry(a.Registry))
	}

	return dispatch.New(dispatch.Settings{
		Root:          ws.root,
		Venv:          ws.cfg.Venv,
		Interpreter:   ws.cfg.Interpreter,
		ModuleRootVar: ws.cfg.ModuleRootVar,
	}, opts...)
}

// loadDocument reads the pubpublica configuration document of the workspace.
func (ws *workspace) loadDocument(ctx context.Context) (*pubconfig.Document, error) {
	doc, err := pubconfig.Load(ctx, ws.docPath)
	if err == nil {
		return doc, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration document").
			WithResource(ws.docPath).
			WithSuggestion("Create " + pubconfig.DefaultFileName + " at the repository root, or pass --pc-document").
			WithIssue(issue.DocumentNotFoundId).
			Wrap(err).
			BuildError()
	}
	return nil, issue.NewErrorContext().
		WithOperation("parse configuration document").
		WithResource(ws.docPath).
		WithSuggestion("Fix the reported value; only strings, integers and lists of strings are allowed").
		WithIssue(issue.DocumentParseErrorId).
		Wrap(err).
		BuildError()
}

// glamourStyle maps the color_scheme setting to a glamour style name.
func (ws *workspace) glamourStyle() string {
	if ws == nil {
		return string(config.ColorSchemeAuto)
	}
	return ws.cfg.UI.ColorScheme.String()
}

func absFrom(wd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(wd, path)
}
