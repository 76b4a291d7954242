// Package cli implements the pavexc command-line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "pavexc",
	Short: "Compile a Pavex Blueprint into a generated server crate",
	Long: `pavexc turns a declarative Blueprint — the constructors, routes,
middleware, and config types an application registers — into the Rust
source of a runnable HTTP server crate.

Command Structure:
  pavexc <command> [arguments] [flags]

Examples:
  pavexc generate --blueprint ./app.blueprint.json --root ./app.rustdoc.json -o ./generated
  pavexc check --blueprint ./app.blueprint.json --root ./app.rustdoc.json -o ./generated
  pavexc config set default-output ./generated`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pavexc/config.yaml)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Doc Index cache directory (default is $HOME/.cache/pavexc/docs)")

	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.SetEnvPrefix("PAVEXC")
	viper.AutomaticEnv()

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.pavexc")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	_ = viper.ReadInConfig()
}
