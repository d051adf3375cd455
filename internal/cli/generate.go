package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output string // output file path

	// IDs overrides the block id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs block.IDGenerator
}

// GenerateResult is the payload of a successful generate.
type GenerateResult struct {
	Suite      string `json:"suite"`
	ClassName  string `json:"class_name"`
	Blocks     int    `json:"blocks"`
	Functions  int    `json:"functions"`
	Code       string `json:"code"`
	OutputFile string `json:"output_file,omitempty"`
}

func (r GenerateResult) renderText(w io.Writer) {
	if r.OutputFile == "" {
		fmt.Fprint(w, r.Code)
		return
	}
	fmt.Fprintf(w, "✓ Generated %s (%d function(s), %d block(s))\n", r.ClassName, r.Functions, r.Blocks)
	fmt.Fprintf(w, "Wrote Java source to %s\n", r.OutputFile)
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <document>",
		Short: "Generate a JUnit 5 test class from a block document",
		Long: `Generate Java test source from a suite document.

The document is YAML, or JSON when the file ends in .json. Blocks are
listed in order with their children nested under them. Without --output
the source is printed.

Examples:
  blocktest generate calculator.yaml
  blocktest generate calculator.json -o src/test/java/CalculatorTest.java
  blocktest generate calculator.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ids := opts.IDs
	if ids == nil {
		ids = block.UUIDv7Generator{}
	}
	su, err := LoadDocument(path, ids)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Loaded suite %q with %d block(s) from %s", su.Name, len(su.Blocks), path)

	result := GenerateResult{
		Suite:     su.Name,
		ClassName: codegen.ClassName(su.Name),
		Blocks:    len(su.Blocks),
		Code:      codegen.Generate(su),
	}
	for _, b := range su.Children("") {
		if b.Kind().IsFunctionRoot() {
			result.Functions++
		}
	}

	if opts.Output != "" {
		if err := writeOutput(opts.Output, []byte(result.Code)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.OutputFile = opts.Output
	}

	return formatter.Success(result)
}
