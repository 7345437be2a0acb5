package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/annogen/errors"
)

// EnvPrefix prefixes environment overrides: ANNOGEN_GENERATOR_MAX_ROUNDS=3
const EnvPrefix = "ANNOGEN"

var globalConfig *Config
var viperInstance *viper.Viper

// explicitConfig replaces the upward project search when set (--config)
var explicitConfig string

// ConfigSources records which file each loaded key came from
var ConfigSources = make(map[string]SourceInfo)

// unknownKeys collects keys in config files that annogen does not recognize
var unknownKeys []UnknownKey

// Load reads the annogen configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithHint(err, "run 'annogen am validate' to check the configuration files")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, without
// environment overrides or other config files
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configPath)
	}
	return config, nil
}

// SetConfigFile makes path the project config instead of searching for
// annogen.toml. An empty path restores the search.
func SetConfigFile(path string) {
	explicitConfig = path
	Reset()
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = make(map[string]SourceInfo)
	unknownKeys = nil
}

// UnknownKeys returns keys found in the loaded config files that no setting
// matches, typically typos
func UnknownKeys() []UnknownKey {
	return unknownKeys
}

// initViper initializes Viper with configuration sources and defaults
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults first
	SetDefaults(v)

	// Merge configs in precedence order: system -> user -> project -> env vars
	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// ProjectConfigPath returns the project config in effect: the --config file,
// or the nearest annogen.toml above the working directory ("" if none)
func ProjectConfigPath() string {
	if explicitConfig != "" {
		return explicitConfig
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findProjectConfig(dir)
}

// findProjectConfig searches for annogen.toml by walking up the directory tree
// Returns the path to the first config file found, or empty string if none found
func findProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, stop searching
			return ""
		}
		dir = parent
	}
}

// UserConfigPath returns ~/.annogen/annogen.toml
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".annogen", ConfigFileName)
}

type configFile struct {
	path   string
	source ConfigSource
}

// configFiles lists candidate config files, lowest precedence first
func configFiles() []configFile {
	files := []configFile{
		{"/etc/annogen/" + ConfigFileName, SourceSystem},
	}
	if user := UserConfigPath(); user != "" {
		files = append(files, configFile{user, SourceUser})
	}
	if project := ProjectConfigPath(); project != "" {
		files = append(files, configFile{project, SourceProject})
	}
	return files
}

// mergeConfigFiles merges configuration files in the correct precedence order
// Precedence (lowest to highest): system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) error {
	for _, f := range configFiles() {
		if _, err := os.Stat(f.path); err != nil {
			if f.source == SourceProject && explicitConfig != "" {
				return errors.Wrapf(err, "config file %s", f.path)
			}
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(f.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", f.path)
		}

		settings := tempViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", f.path)
		}
		markSettingsFromSource(settings, "", SourceInfo{Source: f.source, Path: f.path}, ConfigSources)

		unknown, err := CheckUnknownKeys(f.path)
		if err != nil {
			return err
		}
		unknownKeys = append(unknownKeys, unknown...)
	}
	return nil
}

// markSettingsFromSource records source for every leaf key in settings
func markSettingsFromSource(settings map[string]interface{}, prefix string, source SourceInfo, sourceMap map[string]SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			markSettingsFromSource(nested, fullKey, source, sourceMap)
			continue
		}
		sourceMap[fullKey] = source
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	v, err := initViper()
	if err != nil {
		return nil
	}
	return v.Get(key)
}
