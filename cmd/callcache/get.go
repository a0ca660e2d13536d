package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardcser/callcache/internal/tools"
)

var getCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Retrieve a stored value",
	Long: `Retrieve the value stored under KEY and print it converted to --type.
Exits non-zero when the key is absent or the value does not convert.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var getType string

func init() {
	getCmd.Flags().StringVarP(&getType, "type", "t", "text", "value type: text, int, float or bytes (base64)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	ctx := cmd.Context()
	c, store, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	out, found, err := tools.FormatValue(ctx, c, key, getType)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no value stored under %s", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
