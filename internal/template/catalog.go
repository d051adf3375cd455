package template

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/blocktest/internal/block"
)

//go:embed catalog.cue
var builtinCatalog []byte

// CompileError represents a catalogue error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

// CompileCatalog compiles CUE source declaring a `templates` list into
// validated templates, in declaration order. Template names must be unique.
func CompileCatalog(src []byte, filename string) ([]Template, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	list := v.LookupPath(cue.ParsePath("templates"))
	if !list.Exists() {
		return nil, &CompileError{Field: "templates", Message: "templates is required", Pos: v.Pos()}
	}
	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Template
	seen := make(map[string]bool)
	for iter.Next() {
		tv := iter.Value()
		t, err := compileTemplate(tv)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, &CompileError{
				Field:   "name",
				Message: fmt.Sprintf("duplicate template name %q", t.Name),
				Pos:     tv.Pos(),
			}
		}
		seen[t.Name] = true
		if err := t.Validate(); err != nil {
			return nil, &CompileError{Field: "root", Message: err.Error(), Pos: tv.Pos()}
		}
		out = append(out, t)
	}
	return out, nil
}

func compileTemplate(v cue.Value) (Template, error) {
	var t Template
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return t, formatCUEError(err)
	}
	t.Name = name
	if d := v.LookupPath(cue.ParsePath("description")); d.Exists() {
		if t.Description, err = d.String(); err != nil {
			return t, formatCUEError(err)
		}
	}
	root := v.LookupPath(cue.ParsePath("root"))
	if !root.Exists() {
		return t, &CompileError{Field: "root", Message: "root is required", Pos: v.Pos()}
	}
	if t.Root, err = compileNode(root); err != nil {
		return t, err
	}
	return t, nil
}

func compileNode(v cue.Value) (Node, error) {
	var n Node
	kind, err := v.LookupPath(cue.ParsePath("kind")).String()
	if err != nil {
		return n, formatCUEError(err)
	}
	n.Kind = block.Kind(kind)

	if fv := v.LookupPath(cue.ParsePath("fields")); fv.Exists() {
		iter, err := fv.Fields()
		if err != nil {
			return n, formatCUEError(err)
		}
		n.Fields = make(map[string]string)
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return n, formatCUEError(err)
			}
			n.Fields[iter.Label()] = s
		}
	}

	if cv := v.LookupPath(cue.ParsePath("children")); cv.Exists() {
		iter, err := cv.List()
		if err != nil {
			return n, formatCUEError(err)
		}
		for iter.Next() {
			child, err := compileNode(iter.Value())
			if err != nil {
				return n, err
			}
			n.Children = append(n.Children, child)
		}
	}
	return n, nil
}

var (
	builtinOnce sync.Once
	builtin     []Template
	builtinErr  error
)

// Builtin returns the embedded template catalogue.
func Builtin() ([]Template, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = CompileCatalog(builtinCatalog, "catalog.cue")
	})
	return builtin, builtinErr
}

// Lookup returns the built-in template with the given name.
func Lookup(name string) (Template, bool) {
	all, err := Builtin()
	if err != nil {
		return Template{}, false
	}
	for _, t := range all {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}
