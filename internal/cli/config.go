package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/output"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	Long:    `View and modify lockgate configuration settings.`,
	GroupID: groupConfig,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.lockgate/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  lockgate config init
  lockgate config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, after environment variables and flags are applied.`,
	Example: `  lockgate config show
  lockgate config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  `Get a specific configuration value by its dotted key.`,
	Example: `  lockgate config get lock.tick_seconds
  lockgate config get store.backend`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its dotted key.

The value is validated before the configuration file is written.`,
	Example: `  lockgate config set store.backend sqlite
  lockgate config set lock.hash_scheme argon2id
  lockgate config set biometric.provider command`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeConfigKeys,
	RunE:              runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

// configKey reads and writes one dotted configuration key.
type configKey struct {
	get func(c *config.Config) string
	set func(c *config.Config, v string) error
}

//nolint:gochecknoglobals // Fixed key table, filled in init
var configKeys map[string]configKey

// configKeyOrder is the display order for config show.
//
//nolint:gochecknoglobals // Fixed key table
var configKeyOrder = []string{
	"home",
	"store.backend",
	"store.path",
	"lock.tick_seconds",
	"lock.hash_scheme",
	"lock.pin_length",
	"lock.corrupt_policy",
	"lock.unlock_attempts_per_minute",
	"biometric.provider",
	"biometric.command",
	"biometric.modality",
	"output.default_format",
	"output.color",
	"output.verbose",
	"logging.level",
	"logging.file",
}

//nolint:gochecknoinits,funlen // One entry per key
func init() {
	configKeys = map[string]configKey{
		"home": {
			func(c *config.Config) string { return c.Home },
			func(c *config.Config, v string) error { c.Home = config.SanitizePath(v); return nil },
		},
		"store.backend": {
			func(c *config.Config) string { return c.Store.Backend },
			func(c *config.Config, v string) error { c.Store.Backend = lower(v); return nil },
		},
		"store.path": {
			func(c *config.Config) string { return c.Store.Path },
			func(c *config.Config, v string) error { c.Store.Path = config.SanitizePath(v); return nil },
		},
		"lock.tick_seconds": {
			func(c *config.Config) string { return strconv.Itoa(c.Lock.TickSeconds) },
			intSetter(func(c *config.Config, n int) { c.Lock.TickSeconds = n }),
		},
		"lock.hash_scheme": {
			func(c *config.Config) string { return c.Lock.HashScheme },
			func(c *config.Config, v string) error { c.Lock.HashScheme = lower(v); return nil },
		},
		"lock.pin_length": {
			func(c *config.Config) string { return strconv.Itoa(c.Lock.PINLength) },
			intSetter(func(c *config.Config, n int) { c.Lock.PINLength = n }),
		},
		"lock.corrupt_policy": {
			func(c *config.Config) string { return c.Lock.CorruptPolicy },
			func(c *config.Config, v string) error { c.Lock.CorruptPolicy = lower(v); return nil },
		},
		"lock.unlock_attempts_per_minute": {
			func(c *config.Config) string { return strconv.Itoa(c.Lock.UnlockAttemptsPerMinute) },
			intSetter(func(c *config.Config, n int) { c.Lock.UnlockAttemptsPerMinute = n }),
		},
		"biometric.provider": {
			func(c *config.Config) string { return c.Biometric.Provider },
			func(c *config.Config, v string) error { c.Biometric.Provider = lower(v); return nil },
		},
		"biometric.command": {
			func(c *config.Config) string { return c.Biometric.Command },
			func(c *config.Config, v string) error { c.Biometric.Command = strings.TrimSpace(v); return nil },
		},
		"biometric.modality": {
			func(c *config.Config) string { return c.Biometric.Modality },
			func(c *config.Config, v string) error { c.Biometric.Modality = lower(v); return nil },
		},
		"output.default_format": {
			func(c *config.Config) string { return c.Output.DefaultFormat },
			func(c *config.Config, v string) error { c.Output.DefaultFormat = lower(v); return nil },
		},
		"output.color": {
			func(c *config.Config) string { return c.Output.Color },
			func(c *config.Config, v string) error { c.Output.Color = lower(v); return nil },
		},
		"output.verbose": {
			func(c *config.Config) string { return strconv.FormatBool(c.Output.Verbose) },
			func(c *config.Config, v string) error {
				b, err := parseOnOff(v)
				c.Output.Verbose = b
				return err
			},
		},
		"logging.level": {
			func(c *config.Config) string { return c.Logging.Level },
			func(c *config.Config, v string) error { c.Logging.Level = lower(v); return nil },
		},
		"logging.file": {
			func(c *config.Config) string { return c.Logging.File },
			func(c *config.Config, v string) error { c.Logging.File = config.SanitizePath(v); return nil },
		},
	}
}

func lower(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func intSetter(apply func(c *config.Config, n int)) func(c *config.Config, v string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return gateerr.WithSuggestion(
				gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{"value": v}),
				"expected a whole number",
			)
		}
		apply(c, n)
		return nil
	}
}

// lookupConfigKey finds a key or returns ErrUnknownConfigKey with the
// closest known key as a suggestion.
func lookupConfigKey(key string) (configKey, error) {
	if k, ok := configKeys[strings.ToLower(strings.TrimSpace(key))]; ok {
		return k, nil
	}

	err := gateerr.WithDetails(gateerr.ErrUnknownConfigKey, map[string]string{"key": key})
	best, bestDist := "", 5
	for _, candidate := range configKeyOrder {
		if d := levenshtein.ComputeDistance(key, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" {
		return configKey{}, gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return configKey{}, gateerr.WithSuggestion(err, "run 'lockgate config show' to list keys")
}

func completeConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return configKeyOrder, cobra.ShellCompDirectiveNoFileComp
}

func configFilePath() string {
	return config.Path(config.ExpandHome(cfg.Home))
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := configFilePath()

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return gateerr.WithSuggestion(
			gateerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	notifier.Successf("Configuration initialized at %s", configPath)
	if !formatter.IsJSON() {
		w := cmd.OutOrStdout()
		outln(w)
		outln(w, "Edit this file to configure:")
		outln(w, "  - store.backend: file, sqlite, keyring, or memory")
		outln(w, "  - lock.hash_scheme: sha256 or argon2id")
		outln(w, "  - biometric.provider: none, scripted, or command")
		outln(w, "  - logging.level: off, error, info, or debug")
	}
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		values := make(map[string]string, len(configKeyOrder))
		for _, key := range configKeyOrder {
			values[key] = configKeys[key].get(cfg)
		}
		return formatter.Print(values)
	}

	t := output.NewTable("KEY", "VALUE")
	for _, key := range configKeyOrder {
		t.AddRow(key, configKeys[key].get(cfg))
	}
	return t.Render(formatter.Writer())
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	k, err := lookupConfigKey(args[0])
	if err != nil {
		return err
	}
	outln(cmd.OutOrStdout(), k.get(cfg))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	k, err := lookupConfigKey(key)
	if err != nil {
		return err
	}

	// Edit the file as written, not the effective config with env overrides.
	configPath := configFilePath()
	current, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		current = config.Defaults()
		current.Home = cfg.Home
	}

	if err := k.set(current, value); err != nil {
		return err
	}
	if err := current.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := config.Save(current, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	notifier.Successf("Set %s = %s", strings.ToLower(strings.TrimSpace(key)), k.get(current))
	return nil
}
