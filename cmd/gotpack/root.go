// Command gotpack is a demonstration harness over the got-portable
// object-access core: it reads objects out of a repository's loose
// and packed storage and prints them, the way `git cat-file` and
// `git verify-pack` do. It is not a porcelain: it has no write path,
// no ref resolution beyond reading a name, and no working tree
// support (see SPEC_FULL.md's non-goals).
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var repoPath string

var rootCmd = &cobra.Command{
	Use:   "gotpack",
	Short: "Inspect git objects directly from loose and pack storage",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", ".", "path to the repository (or its working checkout)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %s", err)
		os.Exit(1)
	}
}

func info(format string, args ...interface{}) {
	color.Cyan(format, args...)
}

func printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}
