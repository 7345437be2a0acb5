package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/router"
)

// isolate points HOME and the working directory at a fresh tree so no real
// user or project config leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	SetConfigFile("")
	t.Cleanup(func() { SetConfigFile("") })
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
}

func TestLoadWithViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "annogen:", cfg.Generator.DirectivePrefix)
	assert.Equal(t, DefaultMaxRounds, cfg.Generator.MaxRounds)
	assert.Equal(t, 0, cfg.Generator.Concurrency)
	assert.Equal(t, []string{"./..."}, cfg.PatternsOrDefault())
	assert.Equal(t, "utf-8", cfg.Output.Encoding)
	assert.Equal(t, "lf", cfg.Output.LineEnding)
	assert.Equal(t, router.DefaultManifestName, cfg.Output.Manifest)
	assert.False(t, cfg.Log.JSON)
	assert.Positive(t, cfg.EffectiveConcurrency())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"custom prefix", func(c *Config) { c.Generator.DirectivePrefix = "gen:" }, false},
		{"empty prefix", func(c *Config) { c.Generator.DirectivePrefix = "" }, true},
		{"prefix with slash", func(c *Config) { c.Generator.DirectivePrefix = "/annogen:" }, true},
		{"prefix with space", func(c *Config) { c.Generator.DirectivePrefix = "anno gen:" }, true},
		{"zero max rounds", func(c *Config) { c.Generator.MaxRounds = 0 }, true},
		{"one max round", func(c *Config) { c.Generator.MaxRounds = 1 }, false},
		{"zero concurrency means GOMAXPROCS", func(c *Config) { c.Generator.Concurrency = 0 }, false},
		{"negative concurrency", func(c *Config) { c.Generator.Concurrency = -1 }, true},
		{"blank processor name", func(c *Config) { c.Generator.Processors = []string{"builder", " "} }, true},
		{"crlf", func(c *Config) { c.Output.LineEnding = "crlf" }, false},
		{"unknown line ending", func(c *Config) { c.Output.LineEnding = "cr" }, true},
		{"latin1", func(c *Config) { c.Output.Encoding = "latin1" }, false},
		{"unknown encoding", func(c *Config) { c.Output.Encoding = "klingon" }, true},
		{"manifest disabled", func(c *Config) { c.Output.Manifest = "" }, false},
		{"absolute manifest", func(c *Config) { c.Output.Manifest = "/tmp/m.yaml" }, true},
		{"manifest outside module", func(c *Config) { c.Output.Manifest = "../m.yaml" }, true},
		{"negative verbosity", func(c *Config) { c.Log.Verbosity = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, DefaultDirPermissions))

	assert.Empty(t, findProjectConfig(sub))

	writeFile(t, filepath.Join(root, "a", ConfigFileName), "")
	assert.Equal(t, filepath.Join(root, "a", ConfigFileName), findProjectConfig(sub))

	writeFile(t, filepath.Join(sub, ConfigFileName), "")
	assert.Equal(t, filepath.Join(sub, ConfigFileName), findProjectConfig(sub), "nearest file wins")
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, ".annogen", ConfigFileName), `
[generator]
max_rounds = 5

[log]
verbosity = 1
`)
	project := filepath.Join(home, "work", "app")
	writeFile(t, filepath.Join(project, ConfigFileName), `
[generator]
max_rounds = 3
processors = ["builder"]

[output]
line_ending = "lf"

[processors.builder]
file_suffix = "_gen"
`)
	t.Chdir(project)
	t.Setenv("ANNOGEN_OUTPUT_LINE_ENDING", "crlf")
	Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Generator.MaxRounds, "project overrides user")
	assert.Equal(t, 1, cfg.Log.Verbosity, "user overrides defaults")
	assert.Equal(t, "crlf", cfg.Output.LineEnding, "environment overrides project")
	assert.Equal(t, []string{"builder"}, cfg.Generator.Processors)
	assert.Equal(t, "_gen", cfg.Processors["builder"]["file_suffix"])

	assert.Equal(t, SourceProject, ConfigSources["generator.max_rounds"].Source)
	assert.Equal(t, SourceUser, ConfigSources["log.verbosity"].Source)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again, "cached until Reset")
}

func TestLoadInvalidConfig(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ConfigFileName), "[generator]\nmax_rounds = 0\n")
	Reset()

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestSetConfigFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ConfigFileName), "[generator]\nmax_rounds = 4\n")
	other := filepath.Join(home, "ci.toml")
	writeFile(t, other, "[generator]\nmax_rounds = 2\n")

	SetConfigFile(other)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Generator.MaxRounds)
	assert.Equal(t, other, ProjectConfigPath())

	SetConfigFile(filepath.Join(home, "missing.toml"))
	_, err = Load()
	assert.Error(t, err, "an explicit config file must exist")
}

func TestUnknownKeys(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ConfigFileName), `
[generator]
max_round = 3

[processors.builder]
anything = "goes"
`)
	Reset()

	_, err := Load()
	require.NoError(t, err)

	var keys []string
	for _, k := range UnknownKeys() {
		keys = append(keys, k.Key)
	}
	assert.Equal(t, []string{"generator.max_round"}, keys)
}

func TestCheckUnknownKeysSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, "[generator\nmax_rounds = 3\n")

	_, err := CheckUnknownKeys(path)
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllDetails(err), "parse errors carry the position")
}

func TestRouterOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Output.Header = "Copyright 2026"
	opts, err := cfg.RouterOptions()
	require.NoError(t, err)

	filer := router.NewMemFiler()
	r, err := router.New(filer, nil, opts...)
	require.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.Len(t, opts, 3)

	cfg.Output.LineEnding = "cr"
	_, err = cfg.RouterOptions()
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestLoadConfigBuildTags(t *testing.T) {
	cfg := Defaults()
	cfg.Generator.BuildTags = []string{"integration", "linux"}
	cfg.Generator.Tests = true

	lc := cfg.LoadConfig("/src/app")
	assert.Equal(t, "/src/app", lc.Dir)
	assert.Equal(t, "annogen:", lc.Prefix)
	assert.True(t, lc.Tests)
	assert.Equal(t, []string{"-tags=integration,linux"}, lc.BuildFlags)
}

func TestProvider(t *testing.T) {
	v := viper.New()
	v.Set("processors.builder.file_suffix", "_gen")
	p := NewProvider(v)

	cfg := p.GetProcessorConfig("builder")
	require.NotNil(t, cfg)
	assert.Equal(t, "_gen", cfg.GetString("file_suffix"))
	assert.True(t, cfg.IsSet("file_suffix"))

	assert.Nil(t, p.GetProcessorConfig("enum"))

	var none *Provider
	assert.Nil(t, none.GetProcessorConfig("builder"))
}
