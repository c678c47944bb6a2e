package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hassan/toyc/internal/config"
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/session"
)

var (
	flagConfigPath string
	flagImportRoot []string
	flagSaveIR     bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toycompiler",
		Short:         "Lexes, boxes, type-checks, and lowers a .toy program to typed SSA",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a toyc.yaml project config")
	root.PersistentFlags().StringArrayVar(&flagImportRoot, "import-root", nil, "directory to search for dotted imports (repeatable)")
	root.PersistentFlags().BoolVar(&flagSaveIR, "save-ir", false, "print the lowered TIR for every function")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newDumpTIRCmd())
	return root
}

// loadConfig assembles the effective config for this invocation: a
// toyc.yaml project file, if --config names one, with CLI flag overrides
// layered on top via Config.Merge.
func loadConfig(entryFile string) (config.Config, error) {
	base := config.Default()
	if flagConfigPath != "" {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("loading %s: %w", flagConfigPath, err)
		}
		base = loaded
	}
	override := config.Config{
		EntryFile:   entryFile,
		ImportRoots: flagImportRoot,
		DumpTIR:     flagSaveIR,
	}
	return base.Merge(override), nil
}

func newSession() (*session.Session, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return session.NewWithLogger(logger)
}

// reportAndExit prints err in the diag package's colorized rendering when
// it's a *diag.Error, or plainly otherwise, and returns err unchanged for
// cobra's RunE to propagate; main then exits with status 1.
func reportAndExit(err error) error {
	if de, ok := err.(*diag.Error); ok {
		fmt.Fprintln(os.Stderr, diag.Render(de))
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
