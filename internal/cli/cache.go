package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rivecq/internal/fileloader"
)

// CacheResult lists the URLs held in the download cache.
type CacheResult struct {
	Keys    []string `json:"keys"`
	Evicted []string `json:"evicted,omitempty"`
}

// NewCacheCommand creates the cache command.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	var evict []string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "List or evict cached downloads",
		Long: `List the scene URLs held in the --cache database.

--evict drops a URL so the next load downloads it again. Evicting a URL
that is not cached is not an error.

Examples:
  rivecq cache --cache ./downloads.db
  rivecq cache --cache ./downloads.db --evict https://example.com/hero.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache(rootOpts, evict, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&evict, "evict", nil, "URLs to drop from the cache")
	return cmd
}

func runCache(opts *RootOptions, evict []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	if opts.Cache == "" {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "--cache is required", nil)
	}

	c, err := fileloader.OpenCache(opts.Cache)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to open cache", err)
	}
	defer c.Close()

	for _, url := range evict {
		if err := c.Delete(url); err != nil {
			return out.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("failed to evict %s", url), err)
		}
		out.VerboseLog("evicted %s", url)
	}

	keys, err := c.Keys()
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeGeneric, "failed to list cache", err)
	}
	if keys == nil {
		keys = []string{}
	}

	result := CacheResult{Keys: keys, Evicted: evict}
	return out.Render(result, func(w io.Writer) {
		if len(keys) == 0 {
			fmt.Fprintln(w, "Cache is empty.")
			return
		}
		for _, k := range keys {
			fmt.Fprintln(w, k)
		}
	})
}
