package block

import (
	"errors"
	"fmt"
	"sort"
)

// Field names as they appear in documents, templates and field updates.
const (
	FieldFuncName      = "funcName"
	FieldRubricID      = "rubricId"
	FieldVarType       = "varType"
	FieldVarName       = "varName"
	FieldValue         = "value"
	FieldTarget        = "target"
	FieldMatcherType   = "matcherType"
	FieldExceptionType = "exceptionType"
	FieldExpression    = "expression"
	FieldCheckType     = "checkType"
	FieldClassName     = "className"
	FieldMethodName    = "methodName"
	FieldFieldName     = "fieldName"
	FieldParamTypes    = "paramTypes"
	FieldReturnType    = "returnType"
	FieldInterfaceName = "interfaceName"
	FieldText          = "text"
)

var (
	ErrUnknownKind  = errors.New("unknown block kind")
	ErrUnknownField = errors.New("unknown field")
)

// fieldNames maps each kind to its payload fields, in emission order.
var fieldNames = map[Kind][]string{
	KindFunction:        {FieldFuncName, FieldRubricID},
	KindAnalyzeFunction: {FieldFuncName, FieldRubricID},
	KindVariable:        {FieldVarType, FieldVarName, FieldValue},
	KindAssertThat:      {FieldTarget},
	KindMatcher:         {FieldMatcherType, FieldValue},
	KindExceptionAssert: {FieldExceptionType, FieldExpression},
	KindStaticAssert: {
		FieldCheckType, FieldClassName, FieldMethodName, FieldFieldName,
		FieldParamTypes, FieldReturnType, FieldInterfaceName,
	},
	KindStructureCheck: {FieldCheckType, FieldMethodName, FieldTarget},
	KindComment:        {FieldText},
}

// FieldNames returns the payload field names of kind k.
func FieldNames(k Kind) []string {
	return append([]string(nil), fieldNames[k]...)
}

// Payload is a sealed interface over the block variants.
// Only the payload types declared in this file implement it.
//
// Payloads are values: With returns a modified copy and never mutates
// the receiver.
type Payload interface {
	Kind() Kind
	Get(field string) (string, bool)
	With(field, value string) (Payload, error)
	payload()
}

// Function is a test-method root.
type Function struct {
	FuncName string
	RubricID string
}

// AnalyzeFunction is the structural-analysis root; its body holds
// StructureCheck blocks.
type AnalyzeFunction struct {
	FuncName string
	RubricID string
}

// Variable is a local declaration inside a function body.
type Variable struct {
	VarType string
	VarName string
	Value   string
}

// AssertThat is an assertion root; its children are Matchers.
type AssertThat struct {
	Target string
}

// Matcher is one link of an assertion call chain.
type Matcher struct {
	MatcherType string
	Value       string
}

// ExceptionAssert asserts that evaluating Expression throws ExceptionType.
type ExceptionAssert struct {
	ExceptionType string
	Expression    string
}

// StaticAssert checks for the existence of declarations in the
// submitted source.
type StaticAssert struct {
	CheckType     string
	ClassName     string
	MethodName    string
	FieldName     string
	ParamTypes    string // comma separated
	ReturnType    string
	InterfaceName string
}

// StructureCheck checks the control-flow shape of a method.
type StructureCheck struct {
	CheckType  string
	MethodName string
	Target     string
}

// Comment is free text emitted as a source comment.
type Comment struct {
	Text string
}

func (Function) payload()        {}
func (AnalyzeFunction) payload() {}
func (Variable) payload()        {}
func (AssertThat) payload()      {}
func (Matcher) payload()         {}
func (ExceptionAssert) payload() {}
func (StaticAssert) payload()    {}
func (StructureCheck) payload()  {}
func (Comment) payload()         {}

func (Function) Kind() Kind        { return KindFunction }
func (AnalyzeFunction) Kind() Kind { return KindAnalyzeFunction }
func (Variable) Kind() Kind        { return KindVariable }
func (AssertThat) Kind() Kind      { return KindAssertThat }
func (Matcher) Kind() Kind         { return KindMatcher }
func (ExceptionAssert) Kind() Kind { return KindExceptionAssert }
func (StaticAssert) Kind() Kind    { return KindStaticAssert }
func (StructureCheck) Kind() Kind  { return KindStructureCheck }
func (Comment) Kind() Kind         { return KindComment }

func (p Function) Get(field string) (string, bool) {
	switch field {
	case FieldFuncName:
		return p.FuncName, true
	case FieldRubricID:
		return p.RubricID, true
	}
	return "", false
}

func (p Function) With(field, value string) (Payload, error) {
	switch field {
	case FieldFuncName:
		p.FuncName = value
	case FieldRubricID:
		p.RubricID = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p AnalyzeFunction) Get(field string) (string, bool) {
	switch field {
	case FieldFuncName:
		return p.FuncName, true
	case FieldRubricID:
		return p.RubricID, true
	}
	return "", false
}

func (p AnalyzeFunction) With(field, value string) (Payload, error) {
	switch field {
	case FieldFuncName:
		p.FuncName = value
	case FieldRubricID:
		p.RubricID = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p Variable) Get(field string) (string, bool) {
	switch field {
	case FieldVarType:
		return p.VarType, true
	case FieldVarName:
		return p.VarName, true
	case FieldValue:
		return p.Value, true
	}
	return "", false
}

func (p Variable) With(field, value string) (Payload, error) {
	switch field {
	case FieldVarType:
		p.VarType = value
	case FieldVarName:
		p.VarName = value
	case FieldValue:
		p.Value = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p AssertThat) Get(field string) (string, bool) {
	if field == FieldTarget {
		return p.Target, true
	}
	return "", false
}

func (p AssertThat) With(field, value string) (Payload, error) {
	if field != FieldTarget {
		return p, unknownField(p, field)
	}
	p.Target = value
	return p, nil
}

func (p Matcher) Get(field string) (string, bool) {
	switch field {
	case FieldMatcherType:
		return p.MatcherType, true
	case FieldValue:
		return p.Value, true
	}
	return "", false
}

func (p Matcher) With(field, value string) (Payload, error) {
	switch field {
	case FieldMatcherType:
		p.MatcherType = value
	case FieldValue:
		p.Value = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p ExceptionAssert) Get(field string) (string, bool) {
	switch field {
	case FieldExceptionType:
		return p.ExceptionType, true
	case FieldExpression:
		return p.Expression, true
	}
	return "", false
}

func (p ExceptionAssert) With(field, value string) (Payload, error) {
	switch field {
	case FieldExceptionType:
		p.ExceptionType = value
	case FieldExpression:
		p.Expression = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p StaticAssert) Get(field string) (string, bool) {
	switch field {
	case FieldCheckType:
		return p.CheckType, true
	case FieldClassName:
		return p.ClassName, true
	case FieldMethodName:
		return p.MethodName, true
	case FieldFieldName:
		return p.FieldName, true
	case FieldParamTypes:
		return p.ParamTypes, true
	case FieldReturnType:
		return p.ReturnType, true
	case FieldInterfaceName:
		return p.InterfaceName, true
	}
	return "", false
}

func (p StaticAssert) With(field, value string) (Payload, error) {
	switch field {
	case FieldCheckType:
		p.CheckType = value
	case FieldClassName:
		p.ClassName = value
	case FieldMethodName:
		p.MethodName = value
	case FieldFieldName:
		p.FieldName = value
	case FieldParamTypes:
		p.ParamTypes = value
	case FieldReturnType:
		p.ReturnType = value
	case FieldInterfaceName:
		p.InterfaceName = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p StructureCheck) Get(field string) (string, bool) {
	switch field {
	case FieldCheckType:
		return p.CheckType, true
	case FieldMethodName:
		return p.MethodName, true
	case FieldTarget:
		return p.Target, true
	}
	return "", false
}

func (p StructureCheck) With(field, value string) (Payload, error) {
	switch field {
	case FieldCheckType:
		p.CheckType = value
	case FieldMethodName:
		p.MethodName = value
	case FieldTarget:
		p.Target = value
	default:
		return p, unknownField(p, field)
	}
	return p, nil
}

func (p Comment) Get(field string) (string, bool) {
	if field == FieldText {
		return p.Text, true
	}
	return "", false
}

func (p Comment) With(field, value string) (Payload, error) {
	if field != FieldText {
		return p, unknownField(p, field)
	}
	p.Text = value
	return p, nil
}

func unknownField(p Payload, field string) error {
	return fmt.Errorf("%w %q for %s block", ErrUnknownField, field, p.Kind())
}

// Zero returns the empty payload of kind k.
func Zero(k Kind) (Payload, error) {
	switch k {
	case KindFunction:
		return Function{}, nil
	case KindAnalyzeFunction:
		return AnalyzeFunction{}, nil
	case KindVariable:
		return Variable{}, nil
	case KindAssertThat:
		return AssertThat{}, nil
	case KindMatcher:
		return Matcher{}, nil
	case KindExceptionAssert:
		return ExceptionAssert{}, nil
	case KindStaticAssert:
		return StaticAssert{}, nil
	case KindStructureCheck:
		return StructureCheck{}, nil
	case KindComment:
		return Comment{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// NewPayload builds a payload of kind k from a field map.
// Fields are applied in sorted key order so errors are deterministic.
func NewPayload(k Kind, fields map[string]string) (Payload, error) {
	p, err := Zero(k)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if p, err = p.With(key, fields[key]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Fields returns the non-empty fields of p as a map.
func Fields(p Payload) map[string]string {
	out := make(map[string]string)
	for _, name := range fieldNames[p.Kind()] {
		if v, _ := p.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// MustPayload is like NewPayload but panics on error.
// Use only in tests or with literal inputs.
func MustPayload(k Kind, fields map[string]string) Payload {
	p, err := NewPayload(k, fields)
	if err != nil {
		panic(err)
	}
	return p
}
