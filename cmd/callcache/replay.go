package main

import (
	"github.com/spf13/cobra"

	"github.com/leonardcser/callcache/internal/callcache"
	"github.com/leonardcser/callcache/internal/instrument"
)

var replayCmd = &cobra.Command{
	Use:   "replay [OPERATION]",
	Short: "Print the recorded call history of an operation",
	Long: `Print how many times an operation was called followed by one line per
recorded call. OPERATION defaults to Cache.Store.

Example output:
  Cache.Store was called 2 times:
  Cache.Store("foo") -> "8f0c..."
  Cache.Store(42) -> "1b7e..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	name := callcache.StoreOp
	if len(args) == 1 {
		name = args[0]
	}

	ctx := cmd.Context()
	store, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := instrument.Replay(ctx, store, name)
	if err != nil {
		return err
	}
	_, err = r.WriteTo(cmd.OutOrStdout())
	return err
}
