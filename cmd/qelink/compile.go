package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qelink/internal/backend"
	"qelink/internal/diag"
	"qelink/internal/image"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <sequence-file|->",
	Short: "Compile a control sequence into an instruction image",
	Long: "Compile a control sequence through the configured native backend " +
		"and write the resulting image container.",
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output image path (default: <input>.qei)")
	compileCmd.Flags().String("target", "", "target control system (overrides config)")
	compileCmd.Flags().String("backend", "", "backend command (overrides config)")
	compileCmd.Flags().Duration("timeout", 0, "backend timeout (0 = none)")
	compileCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	if target == "" {
		target = cfg.Target.Name
	}
	backendCommand, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	if backendCommand == "" {
		backendCommand = cfg.Backend.Command
	}
	if backendCommand == "" {
		return fmt.Errorf("no backend configured: set [backend].command in %s or pass --backend", "qelink.toml")
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format: %s (supported: pretty, json)", format)
	}

	sequence, name, err := readSequence(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	invoker := &backend.Process{
		Command:        backendCommand,
		Args:           cfg.Backend.Args,
		MaxSequenceLen: cfg.Backend.MaxSequenceLength,
	}
	start := time.Now()
	compiled, diags, err := invoker.Invoke(ctx, backend.Request{Sequence: sequence, Target: target})

	bag := diag.NewBag()
	for _, d := range diags {
		bag.Add(d)
	}
	renderDiagnostics(cmd, bag, format)
	if err != nil {
		return err
	}

	// The manifest budget wins when the backend did not declare one.
	if compiled.Capacity == 0 {
		compiled.Capacity = cfg.Target.InstructionMemory
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" {
		output = outputNameFor(name)
	}
	if err := image.WriteCompiledFile(output, compiled); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "compiled %s -> %s (%d bytes, capacity %d) in %s\n",
			name, output, compiled.Size(), compiled.Capacity, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func readSequence(arg string) ([]byte, string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read sequence from stdin: %w", err)
		}
		return data, "<stdin>", nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sequence: %w", err)
	}
	return data, arg, nil
}

func outputNameFor(input string) string {
	if input == "<stdin>" {
		return "out.qei"
	}
	base := input
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + ".qei"
}

