package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the configured root is resolvable in the store",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		if !t.Validate() {
			return fmt.Errorf("root is not resolvable in the backing store")
		}
		fmt.Println("ok")
		return nil
	},
}
