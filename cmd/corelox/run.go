package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xirelogy/corelox"
	"github.com/xirelogy/corelox/internal/config"
	"github.com/xirelogy/corelox/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and execute a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(cmd, args[0])
	},
}

// runFile implements the one-argument invocation contract: read the file,
// interpret it, and exit with the code the specification assigns to each
// outcome (0 success, 65 compile error, 70 runtime error, 74 I/O error).
func runFile(cmd *cobra.Command, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		cmd.PrintErrf("Can't read file %q: %v\n", path, err)
		os.Exit(74)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		cmd.PrintErrln(err)
		os.Exit(74)
		return nil
	}

	session := telemetry.NewSession(path)
	v := corelox.NewVM()
	defer v.Close()
	applyConfig(v, cfg, cmd)
	session.Attach(v.Heap())

	err = v.Interpret(string(source))
	exitCode := 0
	runtimeErrMsg := ""
	switch e := err.(type) {
	case nil:
		exitCode = 0
	case *corelox.CompileError:
		cmd.PrintErrln(e.Error())
		exitCode = 65
	case *corelox.RuntimeError:
		cmd.PrintErrln(formatRuntimeError(e))
		runtimeErrMsg = e.Message
		exitCode = 70
	default:
		cmd.PrintErrln(err)
		exitCode = 70
	}

	if gcLog, _ := cmd.Flags().GetBool("gc-log"); gcLog {
		cmd.PrintErrln(session.Summary())
	}
	writeTelemetryOutputs(cmd, session, exitCode, runtimeErrMsg)

	os.Exit(exitCode)
	return nil
}

func formatRuntimeError(e *corelox.RuntimeError) string {
	out := e.Message
	for _, f := range e.Stack {
		out += "\n[line " + strconv.Itoa(f.Line) + "] in " + f.Function
	}
	return out
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func applyConfig(v *corelox.VM, cfg config.Config, cmd *cobra.Command) {
	if stress, _ := cmd.Flags().GetBool("gc-stress"); stress || cfg.GC.Stress {
		v.Heap().StressGC = true
	}
	if cfg.GC.InitialThreshold > 0 {
		v.Heap().SetNextGC(cfg.GC.InitialThreshold)
	}
	if cfg.GC.GrowthFactor > 0 {
		v.Heap().GrowthFactor = cfg.GC.GrowthFactor
	}
	if cfg.VM.MaxFrames > 0 {
		v.SetMaxFrames(cfg.VM.MaxFrames)
	}
	if cfg.VM.MaxStack > 0 {
		v.SetMaxStack(cfg.VM.MaxStack)
	}
	for _, name := range cfg.Natives.Disabled {
		v.DisableNative(name)
	}
}

func writeTelemetryOutputs(cmd *cobra.Command, session *telemetry.Session, exitCode int, runtimeErr string) {
	report := session.Finish(exitCode, runtimeErr)

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if data, err := telemetry.MarshalReport(report); err == nil {
			_ = os.WriteFile(reportPath, data, 0o644)
		}
	}

	if dbPath, _ := cmd.Flags().GetString("trace-db"); dbPath != "" {
		if db, err := telemetry.OpenTraceDB(dbPath); err == nil {
			_ = db.Insert(session, report)
			db.Close()
		}
	}
}
