package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/constituent-twin/internal/census"
	"github.com/sells-group/constituent-twin/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the result cache",
}

// -- cache stats --

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count unexpired cache entries by kind",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "cache stats")
		}
		formatStats(os.Stdout, stats)
		return nil
	},
}

// -- cache purge --

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpired(ctx)
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}
		fmt.Fprintf(os.Stderr, "Purged %d expired entries.\n", n)
		return nil
	},
}

// -- cache clear --

var cacheClearCmd = &cobra.Command{
	Use:   "clear <region>",
	Short: "Delete cached results for a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, _ := cmd.Flags().GetString("kind")
		switch kind {
		case "", store.KindPersonas, store.KindSummary:
		default:
			return eris.Errorf("unknown kind %q (want %s or %s)", kind, store.KindPersonas, store.KindSummary)
		}

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		region := census.NormalizeID(args[0])
		n, err := st.DeleteCached(ctx, region, kind)
		if err != nil {
			return eris.Wrapf(err, "cache clear %s", region)
		}
		fmt.Fprintf(os.Stderr, "Cleared %d entries for %s.\n", n, region)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().String("kind", "", "only clear this kind (personas or summary)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
