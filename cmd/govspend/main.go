package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/govspend/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Repeatable; later files override earlier ones
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "govspend",
	Short:         "Government contract portfolio analytics",
	Long:          `GovSpend analyses federal contract awards per recipient: value, agency concentration, renewal risk, historical performance and a composite risk score.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd, analyzeCmd, fetchCmd, versionCmd)
}

// loadConfig resolves configuration in order: defaults, files, env, flags.
// The logger is built last so it sees the final logging section.
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("govspend.toml"); err == nil {
			configFiles = append(configFiles, "govspend.toml")
		} else if _, err := os.Stat("deployments/local/govspend.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/govspend.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	if err := config.Validate(); err != nil {
		return err
	}

	logger = common.SetupLogger(config)
	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("badger_path", config.Storage.Badger.Path).
		Msg("Resolved configuration")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if common.Version == "dev" {
		common.LoadVersionFromFile()
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
