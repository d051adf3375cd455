// Package importer recovers a block list from test source.
//
// Parsing is a best-effort, line-oriented scan keyed on the marker comments
// and statement shapes the codegen package emits. Lines it does not
// recognise are skipped. Text produced by codegen.Generate from a suite in
// the round-trippable subset parses back to a suite with the same
// block.Fingerprint; anything else is approximated.
//
// Known losses:
//   - EXTRACTING takes every following matcher of its chain as a child.
//   - A multi-line comment comes back as one Comment block per line.
//   - A user comment that starts with a marker prefix is read as a marker.
//   - Generic type arguments of static-check parameter types are erased.
//   - "Object x;" is how an untyped declaration without a value is written,
//     so an explicit Object type on such a declaration comes back empty.
package importer

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
)

// Option configures a parse.
type Option func(*parser)

// WithIDGenerator sets the id source for parsed blocks.
// Default: block.UUIDv7Generator.
func WithIDGenerator(gen block.IDGenerator) Option {
	return func(p *parser) {
		p.ids = gen
	}
}

// WithLogger sets the logger that reports skipped lines at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(p *parser) {
		p.logger = logger
	}
}

var (
	reFunction  = regexp.MustCompile(`^(?:public\s+)?void\s+(\w+)\s*\(\s*\)\s*(?:throws\s+[\w.,\s]+)?\{$`)
	reVariable  = regexp.MustCompile(`^((?:final\s+)?[\w.]+(?:<.*>)?(?:\[\])*)\s+(\w+)(?:\s*=\s*(.+))?;$`)
	reThrows    = regexp.MustCompile(`^assertThrows\(\s*([\w.]+)\.class\s*,\s*\(\)\s*->\s*(.+)\);$`)
	reStatic    = regexp.MustCompile(`^(\w+)\s+([\w.$]+)(?:\s+([\w.$]+))?$`)
	reStructure = regexp.MustCompile(`^(\w+)\s+(\w+)(?:\s+(\w+))?$`)
	reParams    = regexp.MustCompile(`getDeclaredMethod\("\w+"((?:\s*,\s*[\w.\[\]]+\.class)*)\)`)
	reReturns   = regexp.MustCompile(`^assertEquals\(\s*([\w.\[\]]+)\.class\s*,\s*assertDoesNotThrow\(`)
)

// Words that can open a line shaped like a declaration without being one.
var notATypeName = map[string]bool{
	"return": true, "throw": true, "import": true, "package": true,
	"break": true, "continue": true, "new": true, "yield": true,
}

type parser struct {
	ids    block.IDGenerator
	logger *slog.Logger

	name   string
	blocks []block.Block

	fn            string // open function id, "" at class level
	rubric        string
	analyze       bool
	depth         int // brace depth inside the open function body
	lastStatic    int // index of the last METHOD_EXISTS block, -1 if none
	expectSnippet bool
}

// Parse reads test source and returns the blocks it describes in sequence
// order: every parent precedes its children and siblings keep source order.
func Parse(text string, opts ...Option) []block.Block {
	return run(text, opts).blocks
}

// ParseSuite is Parse plus the suite name from the leading suite marker.
// The suite gets a fresh id from the same generator.
func ParseSuite(text string, opts ...Option) block.Suite {
	p := run(text, opts)
	return block.Suite{ID: p.ids.NewID(), Name: p.name, Blocks: p.blocks}
}

func run(text string, opts []Option) *parser {
	p := &parser{
		ids:        block.UUIDv7Generator{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		lastStatic: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	for n, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !p.line(line) {
			p.logger.Debug("importer skipped line", "line", n+1, "text", line)
		}
	}
	return p
}

func (p *parser) add(payload block.Payload, parentID string) string {
	id := p.ids.NewID()
	p.blocks = append(p.blocks, block.Block{ID: id, ParentID: parentID, Payload: payload})
	return id
}

// line consumes one trimmed, non-empty line and reports whether it was
// understood.
func (p *parser) line(line string) bool {
	snippet := p.expectSnippet
	p.expectSnippet = false

	if strings.HasPrefix(line, "//") {
		return p.comment(line)
	}
	if snippet {
		p.refineStatic(line)
		return true
	}

	switch {
	case line == "@Test":
		return true
	case line == "}":
		return p.closeBrace()
	case strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "package "):
		return true
	case strings.HasPrefix(line, "class ") || strings.Contains(line, " class "):
		return true
	}

	if m := reFunction.FindStringSubmatch(line); m != nil {
		p.openFunction(m[1])
		return true
	}
	if p.fn != "" && strings.HasSuffix(line, "{") {
		// Nested block inside a test body; its contents are still scanned.
		p.depth++
		return false
	}
	if p.assertion(line) {
		return true
	}
	if m := reThrows.FindStringSubmatch(line); m != nil {
		p.add(block.ExceptionAssert{ExceptionType: m[1], Expression: strings.TrimSpace(m[2])}, p.fn)
		return true
	}
	if m := reVariable.FindStringSubmatch(line); m != nil && !notATypeName[m[1]] {
		typ := m[1]
		value := strings.TrimSpace(m[3])
		switch {
		case typ == "var":
			typ = ""
		case typ == "Object" && value == "":
			typ = ""
		}
		p.add(block.Variable{VarType: typ, VarName: m[2], Value: value}, p.fn)
		return true
	}
	return false
}

func (p *parser) openFunction(name string) {
	var payload block.Payload = block.Function{FuncName: name, RubricID: p.rubric}
	if p.analyze {
		payload = block.AnalyzeFunction{FuncName: name, RubricID: p.rubric}
	}
	p.fn = p.add(payload, "")
	p.depth = 0
	p.rubric = ""
	p.analyze = false
}

func (p *parser) closeBrace() bool {
	if p.fn == "" {
		return true
	}
	if p.depth > 0 {
		p.depth--
		return true
	}
	p.fn = ""
	return true
}

func (p *parser) comment(line string) bool {
	if rest, ok := markerRest(line, codegen.MarkerSuite); ok {
		p.name = rest
		return true
	}
	if rest, ok := markerRest(line, codegen.MarkerRubric); ok {
		p.rubric = rest
		return true
	}
	if line == codegen.MarkerStructureAnalysis {
		p.analyze = true
		return true
	}
	if rest, ok := markerRest(line, codegen.MarkerStatic); ok {
		return p.static(rest)
	}
	if rest, ok := markerRest(line, codegen.MarkerStructure); ok {
		return p.structure(rest)
	}
	text := strings.TrimPrefix(line, "//")
	text = strings.TrimPrefix(text, " ")
	if strings.TrimSpace(text) == "" {
		return false
	}
	p.add(block.Comment{Text: text}, p.fn)
	return true
}

// markerRest matches a marker prefix and returns the trimmed remainder.
// Lines are trimmed before parsing, so a marker with an empty value has
// lost the prefix's trailing space.
func markerRest(line, marker string) (string, bool) {
	if line == strings.TrimSpace(marker) {
		return "", true
	}
	if strings.HasPrefix(line, marker) {
		return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
	}
	return "", false
}

func (p *parser) static(rest string) bool {
	m := reStatic.FindStringSubmatch(rest)
	if m == nil {
		return false
	}
	s := block.StaticAssert{CheckType: m[1]}
	switch m[1] {
	case codegen.CheckClassExists:
		s.ClassName = m[2]
	case codegen.CheckImplementsInterface:
		if m[3] == "" {
			return false
		}
		s.ClassName, s.InterfaceName = m[2], m[3]
	case codegen.CheckMethodExists, codegen.CheckFieldExists:
		dot := strings.LastIndexByte(m[2], '.')
		if dot <= 0 || dot == len(m[2])-1 {
			return false
		}
		s.ClassName = m[2][:dot]
		if m[1] == codegen.CheckMethodExists {
			s.MethodName = m[2][dot+1:]
		} else {
			s.FieldName = m[2][dot+1:]
		}
	default:
		return false
	}
	p.add(s, p.fn)
	p.lastStatic = -1
	if s.CheckType == codegen.CheckMethodExists {
		p.lastStatic = len(p.blocks) - 1
	}
	p.expectSnippet = true
	return true
}

// refineStatic reads back parameter and return types from the snippet that
// follows a METHOD_EXISTS marker.
func (p *parser) refineStatic(line string) {
	if p.lastStatic < 0 {
		return
	}
	b := &p.blocks[p.lastStatic]
	s := b.Payload.(block.StaticAssert)
	if m := reReturns.FindStringSubmatch(line); m != nil {
		s.ReturnType = m[1]
	}
	if m := reParams.FindStringSubmatch(line); m != nil && m[1] != "" {
		var params []string
		for _, lit := range strings.Split(m[1], ",") {
			if lit = strings.TrimSpace(lit); lit != "" {
				params = append(params, strings.TrimSuffix(lit, ".class"))
			}
		}
		s.ParamTypes = strings.Join(params, ", ")
	}
	b.Payload = s
	p.lastStatic = -1
}

func (p *parser) structure(rest string) bool {
	m := reStructure.FindStringSubmatch(rest)
	if m == nil {
		return false
	}
	switch m[1] {
	case codegen.CheckUsesLoop, codegen.CheckNoLoop, codegen.CheckUsesRecursion, codegen.CheckNoRecursion:
	case codegen.CheckCallsMethod:
		if m[3] == "" {
			return false
		}
	default:
		return false
	}
	p.add(block.StructureCheck{CheckType: m[1], MethodName: m[2], Target: m[3]}, p.fn)
	p.expectSnippet = true
	return true
}

// assertion parses "assertThat(x).m1(a).m2();" into an AssertThat with its
// matcher chain.
func (p *parser) assertion(line string) bool {
	if !strings.HasPrefix(line, "assertThat(") || !strings.HasSuffix(line, ";") {
		return false
	}
	target, rest, ok := callArgs(strings.TrimPrefix(line, "assertThat"))
	if !ok {
		return false
	}
	links, tail := parseChain(rest)
	if strings.TrimSpace(tail) != ";" {
		return false
	}
	parent := p.add(block.AssertThat{Target: strings.TrimSpace(target)}, p.fn)
	for _, l := range links {
		spec, ok := block.LookupMatcherMethod(l.method)
		if !ok {
			p.logger.Debug("importer skipped matcher", "method", l.method)
			continue
		}
		m := block.Matcher{MatcherType: spec.Type}
		if spec.TakesValue {
			m.Value = strings.TrimSpace(l.args)
		}
		id := p.add(m, parent)
		if spec.Chainable {
			parent = id
		}
	}
	return true
}
