// Package cmd wires the mpt CLI's subcommands with cobra, configured
// through viper (flags, environment, and an optional config file), in
// the style the rest of the retrieved corpus's node binaries use.
package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainsafe/mpt-trie/kvstore"
	"github.com/chainsafe/mpt-trie/kvstore/leveldb"
	"github.com/chainsafe/mpt-trie/trie"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mpt",
	Short: "Inspect and mutate a Merkle Patricia Trie backed by leveldb",
}

// Execute runs the CLI; it's the sole export main calls.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.mpt.yaml)")
	rootCmd.PersistentFlags().String("db", "./mpt-data", "path to the leveldb data directory")
	rootCmd.PersistentFlags().String("root", "", "hex-encoded trie root (empty for the empty trie)")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.SetEnvPrefix("mpt")
	viper.AutomaticEnv()

	rootCmd.AddCommand(putCmd, getCmd, rootHashCmd, iterateCmd, gcCmd, verifyCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".mpt")
	}
	if err := viper.ReadInConfig(); err == nil {
		log.Debug("mpt: using config file", "path", viper.ConfigFileUsed())
	}
}

// openTrie opens the leveldb store at the configured path and returns a
// trie rooted at the configured root (or empty, if none is set).
func openTrie() (*trie.Trie, kvstore.KeyValueStore, error) {
	store, err := leveldb.New(viper.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	rootHex := viper.GetString("root")
	if rootHex == "" {
		return trie.NewEmpty(store), store, nil
	}
	t, err := trie.New(store, common.HexToHash(rootHex))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening trie at root %s: %w", rootHex, err)
	}
	return t, store, nil
}
