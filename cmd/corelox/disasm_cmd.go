package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xirelogy/corelox/internal/compiler"
	"github.com/xirelogy/corelox/internal/disasm"
	"github.com/xirelogy/corelox/internal/heap"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Compile a file and print its disassembled bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			cmd.PrintErrf("Can't read file %q: %v\n", args[0], err)
			os.Exit(74)
			return nil
		}

		h := heap.NewHeap()
		fn, errs := compiler.Compile(h, string(source))
		if errs != nil {
			for _, e := range errs {
				cmd.PrintErrln(e)
			}
			os.Exit(65)
			return nil
		}

		disasm.Chunk(cmd.OutOrStdout(), fn.Chunk, args[0])
		return nil
	},
}
