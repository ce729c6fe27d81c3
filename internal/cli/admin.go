package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/invcache/internal/users"
)

func newWarmCommand(opts *rootOptions) *cobra.Command {
	var (
		timeout    int
		clearFirst bool
	)
	cmd := &cobra.Command{
		Use:   "warm-cache",
		Short: "Pre-populate the cache with the user list and every user",
		Long: `Pre-populate the cache so the first requests after a deploy or a flush are hits.

Examples:
  invcache warm-cache
  invcache warm-cache --timeout 3600
  invcache warm-cache --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				ttl := a.cfg.Cache.TTLDuration()
				if cmd.Flags().Changed("timeout") {
					ttl = time.Duration(timeout) * time.Second
				}
				if a.cfg.Cache.Provider == "bigcache" && ttl != a.cfg.Cache.TTLDuration() {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: bigcache ignores --timeout; entries expire after %ds (cache.ttl)\n",
						a.cfg.Cache.TTL)
				}
				res, err := users.Warm(cmd.Context(), a.repo, a.store, users.WarmOptions{
					TTL:    ttl,
					Clear:  clearFirst,
					Codec:  a.cfg.Cache.Codec,
					Tagger: a.tagger,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if clearFirst {
					fmt.Fprintf(out, "Cleared %d cache entries\n", res.Cleared)
				}
				fmt.Fprintf(out, "Cache warm-up complete! Cached %d entries with %ds timeout\n",
					res.Entries, int(ttl.Seconds()))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", 300, "cache timeout in seconds (default: cache.ttl)")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "clear existing cache before warming")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.admin.Stats(cmd.Context()))
			})
		},
	}
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every key in the cache store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				n := a.admin.ClearAll(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cache entries\n", n)
				return nil
			})
		},
	}
}

func newInvalidateTagCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate-tag <tag>",
		Short: "Delete every cache entry indexed under a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				n, err := a.tagger.InvalidateByTag(cmd.Context(), args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %d cache entries tagged %q\n", n, args[0])
				return err
			})
		},
	}
}
