package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <file.toy>",
		Short: "Run the full pipeline over a .toy file and report success or the first diagnostic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			sess, err := newSession()
			if err != nil {
				return err
			}
			result, err := runPipeline(cfg, sess)
			if err != nil {
				return reportAndExit(err)
			}
			fmt.Printf("build succeeded: %d top-level statements, %d functions\n",
				len(result.Stmts), len(result.Builder.Functions))
			if cfg.DumpTIR {
				fmt.Println(dumpTIR(result.Builder))
			}
			return nil
		},
	}
}

func newDumpTIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-tir <file.toy>",
		Short: "Build a .toy file and print its lowered TIR unconditionally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			sess, err := newSession()
			if err != nil {
				return err
			}
			result, err := runPipeline(cfg, sess)
			if err != nil {
				return reportAndExit(err)
			}
			fmt.Print(dumpTIR(result.Builder))
			return nil
		},
	}
}
