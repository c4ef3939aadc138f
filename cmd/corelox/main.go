// Command corelox is the CLI front end over the corelox package: file
// execution, an interactive prompt, a bytecode disassembler, and a
// language server, matching the invocation contract of a no-argument
// prompt / one-argument file / usage-error-otherwise interpreter.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "corelox",
	Short:         "corelox — a bytecode interpreter for a small class-based scripting language",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE:          runDefault,
}

func init() {
	rootCmd.PersistentFlags().Bool("pretty", false, "use the full-screen REPL front end")
	rootCmd.PersistentFlags().Bool("gc-log", false, "log GC pauses and heap growth to stderr")
	rootCmd.PersistentFlags().Bool("gc-stress", false, "collect on every allocation growth (debug)")
	rootCmd.PersistentFlags().String("config", "corelox.toml", "path to the tuning file")
	rootCmd.PersistentFlags().String("report", "", "write a MessagePack session report to this path on exit")
	rootCmd.PersistentFlags().String("trace-db", "", "append a row to this SQLite trace database on exit")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(lspCmd)
}

// runDefault implements the bare invocation contract directly on the root
// command, since the specification's CLI shape (no subcommand, just
// positional file-or-nothing) predates the subcommand tree the rest of
// this CLI adds around it.
func runDefault(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return startRepl(cmd)
	case 1:
		return runFile(cmd, args[0])
	default:
		cmd.PrintErrln("Usage: corelox [path]")
		os.Exit(64)
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
