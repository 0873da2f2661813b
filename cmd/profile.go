package main

import (
	"os"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <region>",
	Short: "Show the demographic profile for a ZIP code or district",
	Long: `Fetches ACS statistics for a 5-digit ZIP code or a congressional district
("CA-12") and prints the normalized profile. Regions that cannot be resolved
print a fallback profile tagged with the reason.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("profile"); err != nil {
			return err
		}

		normalizer, err := initNormalizer(cfg.Census, cfg.Generator.Seed)
		if err != nil {
			return err
		}

		p := normalizer.Normalize(cmd.Context(), args[0])
		if format == formatJSON {
			return printJSON(os.Stdout, p)
		}
		formatProfile(os.Stdout, p)
		return nil
	},
}

func init() {
	profileCmd.Flags().String("format", formatTable, "output format (table or json)")
	rootCmd.AddCommand(profileCmd)
}
