package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var iterateCmd = &cobra.Command{
	Use:   "iterate",
	Short: "Print every (key, value) pair in ascending key order",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		it := t.Iterator()
		for it.Next() {
			fmt.Printf("%s\t%s\n", it.Key(), it.Value())
		}
		return it.Err()
	},
}
