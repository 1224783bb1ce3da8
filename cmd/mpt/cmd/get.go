package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Look up a key; reports an error and exits 1 if it's absent",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		value, err := t.Get([]byte(args[0]))
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		if value == nil {
			return fmt.Errorf("key %q not found", args[0])
		}
		fmt.Println(string(value))
		return nil
	},
}
