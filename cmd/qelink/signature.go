package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"qelink/internal/config"
	"qelink/internal/diag"
	"qelink/internal/signature"
)

var signatureCmd = &cobra.Command{
	Use:   "signature [flags] <signature.yaml>",
	Short: "Parse and display a signature description",
	Long: "Parse a signature description file and print the argument " +
		"specifications it declares. Useful for validating a description " +
		"before linking against it.",
	Args: cobra.ExactArgs(1),
	RunE: runSignature,
}

func init() {
	signatureCmd.Flags().Bool("lenient", false, "skip malformed entries with a warning")
	signatureCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runSignature(cmd *cobra.Command, args []string) error {
	lenient, err := cmd.Flags().GetBool("lenient")
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

	bag := diag.NewBag()
	sig, err := signature.ParseFile(args[0], lenient, bag)
	if bag.Len() > 0 && format == "pretty" {
		prettyWithVerbosity(cmd.ErrOrStderr(), bag, config.VerbosityWarn)
	}
	if err != nil {
		return err
	}

	if format == "json" {
		return printSignatureJSON(cmd, sig)
	}
	printSignaturePretty(cmd, args[0], sig)
	return nil
}

func printSignaturePretty(cmd *cobra.Command, path string, sig signature.Signature) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d argument(s)\n", path, sig.Len())
	for _, spec := range sig.Specs {
		required := "required"
		if !spec.Required {
			required = "optional"
		}
		fmt.Fprintf(out, "  %-20s %-7s %-9s %s, %d address(es)\n",
			spec.Name, spec.Type, spec.Patch, required, len(spec.Addresses))
		for _, addr := range spec.Addresses {
			fmt.Fprintf(out, "    @0x%08x\n", addr)
		}
	}
}

type jsonSpec struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Patch     string   `json:"patch"`
	Addresses []uint32 `json:"addresses"`
	Required  bool     `json:"required"`
}

func printSignatureJSON(cmd *cobra.Command, sig signature.Signature) error {
	specs := make([]jsonSpec, 0, sig.Len())
	for _, spec := range sig.Specs {
		specs = append(specs, jsonSpec{
			Name:      spec.Name,
			Type:      string(spec.Type),
			Patch:     string(spec.Patch),
			Addresses: spec.Addresses,
			Required:  spec.Required,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(specs)
}
