package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// ConfigKeyDefaultOutput is the viper/config key for the default
	// generated-crate output directory.
	ConfigKeyDefaultOutput = "default_output"

	// ConfigKeyCacheDir is the viper/config key for the Doc Index's on-disk
	// rustdoc JSON cache directory.
	ConfigKeyCacheDir = "cache_dir"

	// EnvDefaultOutput is the environment variable for the default output
	// directory.
	EnvDefaultOutput = "PAVEXC_OUTPUT"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  `Get and set pavexc CLI configuration values stored in ~/.pavexc/config.yaml.`,
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in ~/.pavexc/config.yaml.

Available keys:
  default-output    The directory 'generate'/'check' write to when -o is not specified.
  cache-dir         The Doc Index's on-disk rustdoc JSON cache directory.

Examples:
  pavexc config set default-output ./generated`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			viperKey := normalizeConfigKey(key)

			switch viperKey {
			case ConfigKeyDefaultOutput, ConfigKeyCacheDir:
				// valid
			default:
				return fmt.Errorf("unknown configuration key %q\n\nAvailable keys:\n  default-output\n  cache-dir", key)
			}

			viper.Set(viperKey, value)
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Set %s = %s\n", key, value)
			return nil
		},
	}

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value from ~/.pavexc/config.yaml.

Examples:
  pavexc config get default-output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			viperKey := normalizeConfigKey(key)

			value := viper.GetString(viperKey)
			if value == "" {
				fmt.Printf("%s is not set\n", key)
			} else {
				fmt.Println(value)
			}
			return nil
		},
	}

	return cmd
}

func newConfigListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  `List all configuration values from ~/.pavexc/config.yaml.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := viper.GetString(ConfigKeyDefaultOutput)
			cache := viper.GetString(ConfigKeyCacheDir)

			fmt.Println("Configuration:")
			if out != "" {
				fmt.Printf("  default-output = %s\n", out)
			} else {
				fmt.Println("  default-output = (not set)")
			}
			if cache != "" {
				fmt.Printf("  cache-dir = %s\n", cache)
			} else {
				fmt.Println("  cache-dir = (not set)")
			}

			return nil
		},
	}

	return cmd
}

// resolveOutputDir resolves the output directory from multiple sources.
//
// Precedence (highest to lowest):
//  1. -o/--output flag (explicit)
//  2. PAVEXC_OUTPUT environment variable
//  3. default_output from ~/.pavexc/config.yaml
//  4. Error if none set
func resolveOutputDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if envVal := os.Getenv(EnvDefaultOutput); envVal != "" {
		return envVal, nil
	}

	if configVal := viper.GetString(ConfigKeyDefaultOutput); configVal != "" {
		return configVal, nil
	}

	return "", fmt.Errorf(
		"no output directory specified\n\n" +
			"Specify one using one of:\n" +
			"  -o/--output flag\n" +
			"  PAVEXC_OUTPUT environment variable\n" +
			"  pavexc config set default-output <path>",
	)
}

// writeConfig writes the current viper config to the config file.
func writeConfig() error {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(home, ".pavexc")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	return viper.WriteConfigAs(configPath)
}

// normalizeConfigKey converts CLI-style keys (with dashes) to viper-style keys (with underscores).
func normalizeConfigKey(key string) string {
	switch key {
	case "default-output":
		return ConfigKeyDefaultOutput
	case "cache-dir":
		return ConfigKeyCacheDir
	default:
		return key
	}
}
