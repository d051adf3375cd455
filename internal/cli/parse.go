package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
	"github.com/roach88/blocktest/internal/importer"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Output string // output file path; .json selects JSON
	Name   string // suite name when the source has no suite marker
}

// ParseResult is the payload of a successful parse.
type ParseResult struct {
	Document   block.Document `json:"document"`
	Blocks     int            `json:"blocks"`
	OutputFile string         `json:"output_file,omitempty"`

	encoded []byte
}

func (r ParseResult) renderText(w io.Writer) {
	if r.OutputFile == "" {
		_, _ = w.Write(r.encoded)
		return
	}
	fmt.Fprintf(w, "✓ Parsed %d block(s) into suite %q\n", r.Blocks, r.Document.Name)
	fmt.Fprintf(w, "Wrote document to %s\n", r.OutputFile)
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <source.java>",
		Short: "Parse Java test source back into a block document",
		Long: `Parse JUnit 5 test source into a suite document.

Recognised lines (test methods, declarations, assertThat chains,
assertThrows, comments and the generated structure checks) become blocks.
Everything else is skipped; use --verbose to see what was dropped.
Without --output the document is printed as YAML.

Examples:
  blocktest parse CalculatorTest.java
  blocktest parse CalculatorTest.java -o calculator.yaml
  blocktest parse CalculatorTest.java --name Calculator --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (.json for JSON, YAML otherwise)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "suite name when the source carries none")

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	data, err := readInput(path)
	if err != nil {
		return loadFailure(formatter, err)
	}

	parseOpts := []importer.Option{importer.WithIDGenerator(block.NewSequenceGenerator("p"))}
	if opts.Verbose {
		parseOpts = append(parseOpts, importer.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter())))
	}
	su := importer.ParseSuite(string(data), parseOpts...)
	if su.Name == "" {
		su.Name = opts.Name
	}
	if su.Name == "" {
		su.Name = suiteNameFromFile(path)
	}
	formatter.VerboseLog("Parsed %d block(s) from %s", len(su.Blocks), path)

	result := ParseResult{
		Document: block.DocumentOf(su),
		Blocks:   len(su.Blocks),
	}

	asJSON := opts.Output != "" && isJSONPath(opts.Output)
	encoded, err := EncodeDocument(result.Document, asJSON)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding document: %v", err), nil)
	}
	result.encoded = encoded

	if opts.Output != "" {
		if err := writeOutput(opts.Output, encoded); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		result.OutputFile = opts.Output
	}

	return formatter.Success(result)
}

// suiteNameFromFile derives a suite name from a source file name, dropping
// the "Test" suffix codegen.ClassName adds.
func suiteNameFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name := strings.TrimSuffix(base, "Test"); name != "" && codegen.ClassName(name) == base {
		return name
	}
	return base
}
