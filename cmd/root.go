package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ocrsearch/internal/config"
	"ocrsearch/internal/logger"
)

var version = "1.0.0"

// appConfig is loaded before every command runs.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "ocrsearch",
	Short: "OCR, clean and search scanned Portuguese PDF documents",
	Long: `ocrsearch extracts text from scanned PDF documents with OCR, cleans it
against a Portuguese word list and stores one JSON and one TXT record next to
each PDF. The records can be indexed and searched, and matching pages are
written to highlighted copies of the PDFs.

Settings come from the environment (a .env file is loaded first) and can be
overridden with a YAML file given with --config.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	appConfig = cfg
	return nil
}
