// Command plzero compiles and runs PL/0 source files (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logger  = logrus.New()
	noColor bool
	verbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plzero",
		Short:         "Compile and run PL/0 programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colorized output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print the parse trace and optional-pass warnings")
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	return root
}

func main() {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
