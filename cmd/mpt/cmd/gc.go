package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Sweep cache entries unreachable from the current root",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		t, store, err := openTrie()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := t.CleanCache(); err != nil {
			return fmt.Errorf("clean_cache: %w", err)
		}
		log.Info("mpt: cache swept")
		return nil
	},
}
