package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xirelogy/corelox"
	"github.com/xirelogy/corelox/internal/replui"
	"github.com/xirelogy/corelox/internal/telemetry"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startRepl(cmd)
	},
}

func startRepl(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		cmd.PrintErrln(err)
		os.Exit(74)
		return nil
	}

	v := corelox.NewVM()
	defer v.Close()
	applyConfig(v, cfg, cmd)

	session := telemetry.NewSession("<repl>")
	session.Attach(v.Heap())
	defer func() {
		if gcLog, _ := cmd.Flags().GetBool("gc-log"); gcLog {
			cmd.PrintErrln(session.Summary())
		}
	}()

	pretty, _ := cmd.Flags().GetBool("pretty")
	if replui.ShouldUsePretty(pretty, os.Stdout.Fd()) {
		return replui.RunPretty(v)
	}
	if pretty && !term.IsTerminal(int(os.Stdout.Fd())) {
		cmd.PrintErrln("--pretty requires an interactive terminal; falling back to the plain prompt")
	}
	return replui.RunPlain(v, os.Stdin, os.Stdout, os.Stderr)
}
