package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardcser/callcache/internal/pagecache"
	"github.com/leonardcser/callcache/internal/tools"
	"github.com/leonardcser/callcache/internal/web"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [URL]",
	Short: "Fetch a page through the content cache",
	Long: `Fetch URL through the TTL content cache and print the rendered page.
Repeated fetches within CALLCACHE_PAGE_TTL are served from the cache.
Every fetch increments the access counter shown by 'callcache stats'.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var statsCmd = &cobra.Command{
	Use:   "stats [URL]",
	Short: "Show how many times a page was requested",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statsCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher := web.NewFetcher(web.FetcherOptions{})
	pages := tools.NewPageCache(store, fetcher.FetchContent, cfg.PageTTL, nil)
	content, err := pages.Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetching %s: %w", args[0], err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), content)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	pages := tools.NewPageCache(store, nil, pagecache.DefaultTTL, nil)
	n, err := pages.AccessCount(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s was requested %d times\n", args[0], n)
	return nil
}
