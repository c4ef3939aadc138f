package main

import (
	"github.com/spf13/cobra"

	"github.com/xirelogy/corelox/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run a language server publishing compile diagnostics over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsp.New().Run()
	},
}
