package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/template"
)

// TemplatesOptions holds flags for the templates command.
type TemplatesOptions struct {
	*RootOptions
	Catalog string // CUE catalogue file; empty means built-in
	Show    string // template to print as a document
}

// TemplateInfo describes one catalogue entry.
type TemplateInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Blocks      int             `json:"blocks"`
	Document    *block.Document `json:"document,omitempty"`
}

// TemplateList is the payload of a successful listing.
type TemplateList struct {
	Templates []TemplateInfo `json:"templates"`

	shown []byte
}

func (l TemplateList) renderText(w io.Writer) {
	if l.shown != nil {
		_, _ = w.Write(l.shown)
		return
	}
	fmt.Fprintf(w, "%d template(s):\n", len(l.Templates))
	for _, t := range l.Templates {
		fmt.Fprintf(w, "  %-16s %d block(s)  %s\n", t.Name, t.Blocks, t.Description)
	}
}

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List block templates",
		Long: `List the templates offered in the palette.

Templates come from the built-in catalogue, or from a CUE file declaring a
templates list. With --show, the named template is printed as a suite
document that generate accepts.

Examples:
  blocktest templates
  blocktest templates --show equality
  blocktest templates --catalog course.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplates(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "CUE template catalogue (default: built-in)")
	cmd.Flags().StringVar(&opts.Show, "show", "", "print one template as a document")

	return cmd
}

func runTemplates(opts *TemplatesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	all, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Loaded %d template(s)", len(all))

	if opts.Show == "" {
		list := TemplateList{Templates: make([]TemplateInfo, 0, len(all))}
		for _, t := range all {
			list.Templates = append(list.Templates, TemplateInfo{
				Name:        t.Name,
				Description: t.Description,
				Blocks:      t.Count(),
			})
		}
		return formatter.Success(list)
	}

	for _, t := range all {
		if t.Name != opts.Show {
			continue
		}
		doc, err := templateDocument(t)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalid, err.Error(), nil)
		}
		encoded, err := EncodeDocument(doc, false)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encoding document: %v", err), nil)
		}
		return formatter.Success(TemplateList{
			Templates: []TemplateInfo{{
				Name:        t.Name,
				Description: t.Description,
				Blocks:      t.Count(),
				Document:    &doc,
			}},
			shown: encoded,
		})
	}

	return formatter.Fail(ExitCommandError, ErrCodeUnknownName, fmt.Sprintf("unknown template %q", opts.Show), nil)
}

// templateDocument builds t into a one-suite document named after it.
func templateDocument(t template.Template) (block.Document, error) {
	blocks, err := t.Build(block.NewSequenceGenerator("t"))
	if err != nil {
		return block.Document{}, err
	}
	return block.DocumentOf(block.Suite{Name: t.Name, Blocks: blocks}), nil
}
