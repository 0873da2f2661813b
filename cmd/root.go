package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "twin",
	Short: "Census-based synthetic constituent generator",
	Long:  "Builds demographic profiles for ZIP codes and congressional districts from the Census ACS API, generates synthetic constituent personas with an LLM (falling back to a statistical sampler), and lets staff brief and chat with them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
