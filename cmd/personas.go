package main

import (
	"os"

	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas <region>",
	Short: "Generate synthetic constituent personas for a region",
	Long: `Generates personas matching the region's demographic profile. Configured
LLM providers are tried in order; when none returns a valid batch the
statistical sampler produces it instead.

Examples:
  # Five personas for a ZIP code
  personas 94110

  # Reproducible sampler-only batch for a district
  personas CA-12 --count 20 --offline --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f := cmd.Flags()
		count, _ := f.GetInt("count")
		seed, _ := f.GetUint64("seed")
		offline, _ := f.GetBool("offline")
		refresh, _ := f.GetBool("refresh")
		format, _ := f.GetString("format")

		if err := checkFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("generate"); err != nil {
			return err
		}
		if count == 0 {
			count = cfg.Generator.DefaultPersonas
		}

		env, err := initApp(ctx, cfg, appOptions{Offline: offline, Seed: seed})
		if err != nil {
			return err
		}
		defer env.Close()

		batch, err := env.Service.Personas(ctx, args[0], count, refresh)
		if err != nil {
			return err
		}

		if format == formatJSON {
			return printJSON(os.Stdout, batch)
		}
		formatPersonas(os.Stdout, batch)
		return nil
	},
}

func init() {
	f := personasCmd.Flags()
	f.Int("count", 0, "number of personas (default from config)")
	f.Uint64("seed", 0, "sampler seed for reproducible batches (default from config)")
	f.Bool("offline", false, "skip LLM providers and use the sampler only")
	f.Bool("refresh", false, "ignore any cached batch")
	f.String("format", formatTable, "output format (table or json)")
	rootCmd.AddCommand(personasCmd)
}
