package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardcser/callcache/internal/tools"
)

var storeCmd = &cobra.Command{
	Use:   "store [VALUE]",
	Short: "Store a value and print its generated key",
	Long: `Store a value under a fresh key. The call is counted and recorded so it
shows up in 'callcache replay'.

Examples:
  callcache store hello
  callcache store 3.5 --type float
  callcache store aGVsbG8= --type bytes`,
	Args: cobra.ExactArgs(1),
	RunE: runStore,
}

var storeType string

func init() {
	storeCmd.Flags().StringVarP(&storeType, "type", "t", "text", "value type: text, int, float or bytes (base64)")
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	v, err := tools.ParseValue(args[0], storeType)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, store, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := c.Store(ctx, v)
	if err != nil {
		return fmt.Errorf("storing value: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}
