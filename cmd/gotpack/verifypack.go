package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kack1/got-portable/pack/idx"
	"github.com/kack1/got-portable/pack/pack"
)

var verifyPackStats bool

var verifyPackCmd = &cobra.Command{
	Use:   "verify-pack <pack-or-idx-path>",
	Short: "Validate a pack's index checksum and every object it contains",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyPack,
}

func init() {
	verifyPackCmd.Flags().BoolVarP(&verifyPackStats, "verbose", "v", false, "print per-object stats")
	rootCmd.AddCommand(verifyPackCmd)
}

func runVerifyPack(cmd *cobra.Command, args []string) error {
	idxPath := args[0]
	if strings.HasSuffix(idxPath, ".pack") {
		idxPath = strings.TrimSuffix(idxPath, ".pack") + ".idx"
	}

	pi, err := idx.Open(idxPath)
	if err != nil {
		return fmt.Errorf("verify-pack: %w", err)
	}
	info("index ok: %s (%d objects)\n", idxPath, pi.Count())

	packPath := strings.TrimSuffix(idxPath, ".idx") + ".pack"
	pf, err := pack.Open(packPath, uint32(pi.Count()))
	if err != nil {
		return fmt.Errorf("verify-pack: %w", err)
	}
	defer pf.Close()
	info("pack header ok: %s\n", packPath)

	deltas := 0
	for _, e := range pi.Entries() {
		raw, err := pf.GetByOffset(int64(e.Offset))
		if err != nil {
			return fmt.Errorf("verify-pack: object %s at %d: %w", e.Hash, e.Offset, err)
		}
		if raw.Type.IsDelta() {
			deltas++
		}
		if verifyPackStats {
			printf("%s type=%d size=%d offset=%d\n", e.Hash, raw.Type, raw.Size, e.Offset)
		}
	}

	printf("%d objects, %d deltas\n", pi.Count(), deltas)
	return nil
}
