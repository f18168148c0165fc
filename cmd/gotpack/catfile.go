package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gotpack "github.com/kack1/got-portable"
	"github.com/kack1/got-portable/hash"
)

var (
	catFileType  bool
	catFileSize  bool
	catFilePrint bool
)

var catFileCmd = &cobra.Command{
	Use:   "cat-file <hash>",
	Short: "Print an object's type, size, or content",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatFile,
}

func init() {
	catFileCmd.Flags().BoolVarP(&catFileType, "type", "t", false, "print the object's type")
	catFileCmd.Flags().BoolVarP(&catFileSize, "size", "s", false, "print the object's size in bytes")
	catFileCmd.Flags().BoolVarP(&catFilePrint, "print", "p", false, "print the object's raw content")
	rootCmd.AddCommand(catFileCmd)
}

func runCatFile(cmd *cobra.Command, args []string) error {
	id, err := hash.FromHex(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	repo, err := gotpack.Open(repoPath, gotpack.Options{})
	if err != nil {
		return err
	}
	defer repo.Close()

	switch {
	case catFileType:
		t, err := repo.ObjectType(id)
		if err != nil {
			return err
		}
		printf("%s\n", t)
		return nil

	case catFileSize:
		obj, err := repo.OpenObject(id, nil)
		if err != nil {
			return err
		}
		printf("%d\n", obj.Size())
		return nil

	case catFilePrint:
		obj, err := repo.OpenObject(id, nil)
		if err != nil {
			return err
		}
		fmt.Print(string(obj.Content))
		return nil

	default:
		return fmt.Errorf("cat-file: one of -t, -s, -p is required")
	}
}
