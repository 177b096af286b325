package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qelink/internal/config"
	"qelink/internal/diag"
	"qelink/internal/image"
	"qelink/internal/linker"
	"qelink/internal/pipeline"
	"qelink/internal/signature"
)

var linkCmd = &cobra.Command{
	Use:   "link [flags] <image.qei>",
	Short: "Bind argument values into a compiled instruction image",
	Long: `Link binds runtime argument values into a compiled image according to
its signature description. With one or more --args-file flags the same
image is linked once per file, in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringP("signature", "s", "", "signature description file (required)")
	linkCmd.Flags().StringArray("arg", nil, "argument value as name=value (repeatable)")
	linkCmd.Flags().StringArray("args-file", nil, "YAML file of argument values (repeatable; more than one links a batch)")
	linkCmd.Flags().StringP("output", "o", "", "output path (single link)")
	linkCmd.Flags().String("output-dir", "", "output directory (batch link)")
	linkCmd.Flags().Bool("lenient-signatures", false, "skip malformed signature entries with a warning")
	linkCmd.Flags().Bool("warnings-as-errors", false, "treat link warnings as errors")
	linkCmd.Flags().IntP("jobs", "j", 0, "parallel link jobs (0 = GOMAXPROCS)")
	linkCmd.Flags().String("ui", "auto", "terminal progress UI (auto|on|off)")
	linkCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")

	_ = linkCmd.MarkFlagRequired("signature")
}

func runLink(cmd *cobra.Command, cliArgs []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, jobs, err := linkOptions(cmd, cfg)
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

	imagePath := cliArgs[0]
	img, err := image.ReadCompiledFile(imagePath)
	if err != nil {
		return err
	}

	sigPath, err := cmd.Flags().GetString("signature")
	if err != nil {
		return err
	}
	argFlags, err := cmd.Flags().GetStringArray("arg")
	if err != nil {
		return err
	}
	overrides, err := parseArgFlags(argFlags)
	if err != nil {
		return err
	}
	argFiles, err := cmd.Flags().GetStringArray("args-file")
	if err != nil {
		return err
	}

	if len(argFiles) > 1 {
		return runLinkBatch(cmd, img, sigPath, argFiles, overrides, opts, jobs, format)
	}

	args := overrides
	if len(argFiles) == 1 {
		base, err := loadArgsFile(argFiles[0])
		if err != nil {
			return err
		}
		args = mergeArgs(base, overrides)
	}
	return runLinkSingle(cmd, cfg, img, imagePath, sigPath, args, opts, format)
}

func runLinkSingle(cmd *cobra.Command, cfg config.Config, img *image.Compiled, imagePath, sigPath string, args []linker.Argument, opts linker.Options, format string) error {
	linked, bag, err := linker.Link(img, linker.Source{Path: sigPath}, args, opts)
	renderBag(cmd, cfg, bag, format)
	if err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if output == "" {
		output = linkedNameFor(imagePath)
	}
	if err := image.WriteLinkedFile(output, linked); err != nil {
		return fmt.Errorf("failed to write linked image: %w", err)
	}
	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "linked %s -> %s (%d/%d bytes)\n",
			imagePath, output, linked.Consumed, capacityLabel(img))
	}
	return nil
}

func runLinkBatch(cmd *cobra.Command, img *image.Compiled, sigPath string, argFiles []string, overrides []linker.Argument, opts linker.Options, jobs int, format string) error {
	// The signature is parsed once and shared read-only across items.
	parseBag := diag.NewBag()
	sig, err := signature.ParseFile(sigPath, opts.LenientSignature, parseBag)
	if err != nil {
		if f, ok := diag.AsFailure(err); ok {
			return f.WithDiagnostics(parseBag).WithRender(opts.RenderDiagnostics)
		}
		return err
	}

	items := make([]pipeline.BatchItem, 0, len(argFiles))
	for _, path := range argFiles {
		base, err := loadArgsFile(path)
		if err != nil {
			return err
		}
		items = append(items, pipeline.BatchItem{
			Name:      path,
			Arguments: mergeArgs(base, overrides),
		})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	var results []pipeline.BatchResult
	if shouldUseTUI(mode) && format == "pretty" {
		results, err = runBatchWithUI(ctx, "linking "+filepath.Base(sigPath), img, sig, items, opts, jobs)
		if err != nil {
			return err
		}
	} else {
		results = pipeline.LinkBatch(ctx, img, sig, items, opts, jobs, nil)
	}

	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	if outputDir == "" {
		outputDir = "."
	}

	// Shared parse diagnostics render once, not per item.
	renderDiagnostics(cmd, parseBag, format)

	failed := 0
	for _, res := range results {
		bag := res.Bag
		if res.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Name, res.Err)
			renderDiagnostics(cmd, bag, format)
			continue
		}
		output := filepath.Join(outputDir, batchOutputName(res.Name))
		if err := image.WriteLinkedFile(output, res.Linked); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: failed to write linked image: %v\n", res.Name, err)
			continue
		}
		renderDiagnostics(cmd, bag, format)
		if !quietFlag(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "linked %s -> %s\n", res.Name, output)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d links failed", failed, len(results))
	}
	return nil
}

// linkOptions merges manifest defaults with explicitly set flags.
func linkOptions(cmd *cobra.Command, cfg config.Config) (linker.Options, int, error) {
	opts := linker.Options{
		LenientSignature: cfg.Link.LenientSignatures,
		WarningsAsErrors: cfg.Link.WarningsAsErrors,
	}
	jobs := cfg.Link.Jobs

	if cmd.Flags().Changed("lenient-signatures") {
		v, err := cmd.Flags().GetBool("lenient-signatures")
		if err != nil {
			return opts, 0, err
		}
		opts.LenientSignature = v
	}
	if cmd.Flags().Changed("warnings-as-errors") {
		v, err := cmd.Flags().GetBool("warnings-as-errors")
		if err != nil {
			return opts, 0, err
		}
		opts.WarningsAsErrors = v
	}
	if cmd.Flags().Changed("jobs") {
		v, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return opts, 0, err
		}
		jobs = v
	}
	return opts, jobs, nil
}

func renderBag(cmd *cobra.Command, cfg config.Config, bag *diag.Bag, format string) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	if format == "json" {
		renderDiagnostics(cmd, bag, format)
		return
	}
	w := cmd.ErrOrStderr()
	prettyWithVerbosity(w, bag, cfg.Verbosity)
}

// batchOutputName names one batch output after its argument file.
func batchOutputName(argsPath string) string {
	base := filepath.Base(argsPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".qei"
}

func linkedNameFor(imagePath string) string {
	base := imagePath
	if strings.HasSuffix(base, ".qei") {
		base = strings.TrimSuffix(base, ".qei")
	}
	return base + ".linked.qei"
}

func capacityLabel(img *image.Compiled) uint32 {
	if img.Capacity > 0 {
		return img.Capacity
	}
	return uint32(len(img.Data))
}
