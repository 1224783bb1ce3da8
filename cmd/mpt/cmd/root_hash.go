package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootHashCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the current root hash",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		root, err := t.RootHash()
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", root)
		return nil
	},
}
