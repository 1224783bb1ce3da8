package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Insert or update a key, sync, and print the new root hash",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := t.Update([]byte(args[0]), []byte(args[1])); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		if err := t.Sync(); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		root, err := t.RootHash()
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", root)
		return nil
	},
}
