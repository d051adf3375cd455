// Package codegen renders a suite as JUnit 5 / AssertJ test source.
//
// Generate is a pure function of the suite: the same suite always renders to
// byte-identical text, and emission order is the order of Suite.Blocks, never
// id order. Relabelling ids does not change the output.
//
// In-progress blocks are common while authoring, so a block missing a field
// its snippet needs renders as nothing (or as the part that can be rendered)
// instead of failing. Field values are substituted verbatim.
//
// The output carries marker comments that the importer package relies on:
//
//	// suite: <name>                 first line
//	// rubric: <id>                  before a rubric-linked test
//	// structure-analysis            before an analyze function
//	// static: <CHECK> <target>      before a static check snippet
//	// structure: <CHECK> <method>   before a structure check snippet
package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/blocktest/internal/block"
)

const indentUnit = "    "

// Marker prefixes shared with the importer.
const (
	MarkerSuite             = "// suite: "
	MarkerRubric            = "// rubric: "
	MarkerStructureAnalysis = "// structure-analysis"
	MarkerStatic            = "// static: "
	MarkerStructure         = "// structure: "
)

var header = []string{
	"import static org.assertj.core.api.Assertions.*;",
	"import static org.junit.jupiter.api.Assertions.*;",
	"",
	"import org.junit.jupiter.api.Test;",
}

type writer struct {
	sb strings.Builder
	su block.Suite
}

func (w *writer) line(depth int, s string) {
	if s == "" {
		w.sb.WriteString("\n")
		return
	}
	w.sb.WriteString(strings.Repeat(indentUnit, depth))
	w.sb.WriteString(s)
	w.sb.WriteString("\n")
}

// Generate renders su as a test class.
func Generate(su block.Suite) string {
	w := &writer{su: su}
	w.line(0, MarkerSuite+su.Name)
	for _, h := range header {
		w.line(0, h)
	}
	w.line(0, "")
	w.line(0, "class "+ClassName(su.Name)+" {")

	fnIndex := 0
	for _, b := range su.Children("") {
		w.line(0, "")
		if b.Kind().IsFunctionRoot() {
			fnIndex++
			w.function(b, fnIndex)
			continue
		}
		w.statement(b, 1)
	}
	w.line(0, "}")
	return w.sb.String()
}

func (w *writer) function(b block.Block, index int) {
	name, _ := b.Payload.Get(block.FieldFuncName)
	if name == "" {
		name = fmt.Sprintf("unnamedTest%d", index)
	}
	if rid, _ := b.Payload.Get(block.FieldRubricID); rid != "" {
		w.line(1, MarkerRubric+rid)
	}
	if b.Kind() == block.KindAnalyzeFunction {
		w.line(1, MarkerStructureAnalysis)
	}
	w.line(1, "@Test")
	w.line(1, "void "+name+"() {")
	for _, child := range w.su.Children(b.ID) {
		w.statement(child, 2)
	}
	w.line(1, "}")
}

// statement emits b and, for kinds whose children are not part of their own
// rendering, its children one level deeper.
func (w *writer) statement(b block.Block, depth int) {
	switch p := b.Payload.(type) {
	case block.Function, block.AnalyzeFunction:
		// Nested functions have no Java form.
	case block.Variable:
		if s := variableLine(p); s != "" {
			w.line(depth, s)
		}
	case block.AssertThat:
		if p.Target != "" {
			w.line(depth, "assertThat("+p.Target+")"+w.chain(b.ID)+";")
		}
		return
	case block.Matcher:
		// A matcher outside an assertion has nothing to chain onto.
		return
	case block.ExceptionAssert:
		if p.ExceptionType != "" && p.Expression != "" {
			w.line(depth, "assertThrows("+p.ExceptionType+".class, () -> "+p.Expression+");")
		}
	case block.StaticAssert:
		for _, s := range staticLines(p) {
			w.line(depth, s)
		}
	case block.StructureCheck:
		for _, s := range structureLines(p) {
			w.line(depth, s)
		}
	case block.Comment:
		for _, s := range commentLines(p.Text) {
			w.line(depth, s)
		}
	}
	for _, child := range w.su.Children(b.ID) {
		w.statement(child, depth+1)
	}
}

// chain renders the matcher children of parentID as a call chain. Matchers
// whose value is required but empty are skipped together with their
// children; EXTRACTING continues the chain with its own children.
func (w *writer) chain(parentID string) string {
	var sb strings.Builder
	for _, child := range w.su.Children(parentID) {
		m, ok := child.Payload.(block.Matcher)
		if !ok {
			continue
		}
		spec, ok := block.LookupMatcher(m.MatcherType)
		if !ok {
			continue
		}
		if spec.TakesValue {
			if m.Value == "" {
				continue
			}
			sb.WriteString("." + spec.Method + "(" + m.Value + ")")
		} else {
			sb.WriteString("." + spec.Method + "()")
		}
		if spec.Chainable {
			sb.WriteString(w.chain(child.ID))
		}
	}
	return sb.String()
}

func variableLine(v block.Variable) string {
	if v.VarName == "" {
		return ""
	}
	typ := v.VarType
	if v.Value == "" {
		if typ == "" {
			typ = "Object"
		}
		return typ + " " + v.VarName + ";"
	}
	if typ == "" {
		typ = "var"
	}
	return typ + " " + v.VarName + " = " + v.Value + ";"
}

func commentLines(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(text, "\n") {
		out = append(out, strings.TrimRight("// "+l, " "))
	}
	return out
}

// ClassName derives a Java class name from a suite name: words are
// capitalised and joined, and "Test" is appended unless already present.
func ClassName(suiteName string) string {
	words := strings.FieldsFunc(suiteName, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var sb strings.Builder
	for _, word := range words {
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	name := sb.String()
	if name == "" {
		return "GeneratedTest"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "Suite" + name
	}
	if !strings.HasSuffix(name, "Test") {
		name += "Test"
	}
	return name
}
