package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file>",
	Short: "Summarize a policy document",
	Long:  "Condenses a plain-text or markdown policy document into a title, a short summary and key points. Pass - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		region, _ := cmd.Flags().GetString("region")
		offline, _ := cmd.Flags().GetBool("offline")
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}
		if err := cfg.Validate("generate"); err != nil {
			return err
		}

		text, err := readInput(args[0])
		if err != nil {
			return err
		}

		env, err := initApp(ctx, cfg, appOptions{Offline: offline})
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Service.Summarize(ctx, region, text)
		if err != nil {
			return err
		}

		if format == formatJSON {
			return printJSON(os.Stdout, sum)
		}
		formatSummary(os.Stdout, sum)
		return nil
	},
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), eris.Wrap(err, "read stdin")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", path)
	}
	return string(b), nil
}

func init() {
	f := summarizeCmd.Flags()
	f.String("region", "ALL", "region the summary is cached under")
	f.Bool("offline", false, "skip LLM providers and summarize extractively")
	f.String("format", formatTable, "output format (table or json)")
	rootCmd.AddCommand(summarizeCmd)
}
