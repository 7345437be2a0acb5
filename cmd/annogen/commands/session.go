package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/teranos/annogen/am"
	"github.com/teranos/annogen/diag"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/host"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/router"
)

// Flags shared by the generating commands
var (
	moduleDir      string
	processorNames []string
)

// session holds everything a generating command resolves from configuration
// and flags before it builds a driver.
type session struct {
	cfg        *am.Config
	root       string
	processors []plugin.Processor
	console    *diag.Console
	services   func(*diag.Reporter) plugin.Services
	routerOpts []router.Option
	load       host.Loader
}

func newSession() (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	registry := plugin.GetDefaultRegistry()
	if registry == nil {
		return nil, errors.New("no processor registry")
	}
	names := processorNames
	if len(names) == 0 {
		names = cfg.Generator.Processors
	}
	processors, err := registry.Enabled(names)
	if err != nil {
		return nil, err
	}
	if len(processors) == 0 {
		return nil, errors.WithHint(errors.New("no processors enabled"), "check generator.processors in annogen.toml")
	}

	routerOpts, err := cfg.RouterOptions()
	if err != nil {
		return nil, err
	}

	v, err := am.GetViper()
	if err != nil {
		return nil, err
	}
	provider := am.NewProvider(v)
	concurrency := cfg.EffectiveConcurrency()

	return &session{
		cfg:        cfg,
		root:       root,
		processors: processors,
		console:    diag.NewConsole(os.Stderr, pterm.PrintColor),
		services: func(r *diag.Reporter) plugin.Services {
			return plugin.NewServices(r, logger.Logger, provider, concurrency)
		},
		routerOpts: routerOpts,
		load:       host.ProgramLoader(cfg.LoadConfig(root), cfg.PatternsOrDefault()...),
	}, nil
}

// resolveRoot picks the module directory: --dir, else the directory holding
// annogen.toml, else the working directory.
func resolveRoot() (string, error) {
	dir := moduleDir
	if dir == "" {
		if project := am.ProjectConfigPath(); project != "" {
			dir = filepath.Dir(project)
		} else {
			dir = "."
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "invalid directory %s", dir)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", errors.NewInvalidArgumentError("%s is not a directory", abs)
	}
	return abs, nil
}

// reporter returns a fresh reporter so each run counts its own diagnostics.
func (s *session) reporter() *diag.Reporter {
	return diag.NewReporter(s.console)
}

// manifestPath is where the manifest lives, "" when disabled.
func (s *session) manifestPath() string {
	if s.cfg.Output.Manifest == "" {
		return ""
	}
	return filepath.Join(s.root, filepath.FromSlash(s.cfg.Output.Manifest))
}

// loadManifest returns the existing manifest or a new one; nil when disabled.
func (s *session) loadManifest() (*router.Manifest, error) {
	path := s.manifestPath()
	if path == "" {
		return nil, nil
	}
	return router.LoadManifest(path)
}

// driverOptions are the options every driver of this session gets.
func (s *session) driverOptions(r *diag.Reporter) []host.Option {
	return []host.Option{
		host.WithMaxRounds(s.cfg.Generator.MaxRounds),
		host.WithServices(s.services(r)),
		host.WithRouterOptions(s.routerOpts...),
	}
}
