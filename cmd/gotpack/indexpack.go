package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kack1/got-portable/pack/idx"
)

var indexPackVerify bool

var indexPackCmd = &cobra.Command{
	Use:   "index-pack <idx-path>",
	Short: "Parse and validate a .idx file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexPack,
}

func init() {
	indexPackCmd.Flags().BoolVar(&indexPackVerify, "verify", false, "only validate the index, don't print entries")
	rootCmd.AddCommand(indexPackCmd)
}

func runIndexPack(cmd *cobra.Command, args []string) error {
	pi, err := idx.Open(args[0])
	if err != nil {
		return fmt.Errorf("index-pack: %w", err)
	}

	if indexPackVerify {
		info("%s: ok, %d objects, checksum %s\n", args[0], pi.Count(), pi.PackChecksum())
		return nil
	}

	for _, e := range pi.Entries() {
		printf("%s %d %d\n", e.Hash, e.Offset, e.CRC32)
	}
	return nil
}
