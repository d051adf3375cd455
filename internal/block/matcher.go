package block

// Matcher types.
const (
	MatchIsEqualTo      = "IS_EQUAL_TO"
	MatchIsNotEqualTo   = "IS_NOT_EQUAL_TO"
	MatchIsTrue         = "IS_TRUE"
	MatchIsFalse        = "IS_FALSE"
	MatchIsNull         = "IS_NULL"
	MatchIsNotNull      = "IS_NOT_NULL"
	MatchIsEmpty        = "IS_EMPTY"
	MatchIsNotEmpty     = "IS_NOT_EMPTY"
	MatchHasSize        = "HAS_SIZE"
	MatchContains       = "CONTAINS"
	MatchDoesNotContain = "DOES_NOT_CONTAIN"
	MatchStartsWith     = "STARTS_WITH"
	MatchEndsWith       = "ENDS_WITH"
	MatchIsGreaterThan  = "IS_GREATER_THAN"
	MatchIsLessThan     = "IS_LESS_THAN"
	MatchIsBetween      = "IS_BETWEEN"
	MatchIsInstanceOf   = "IS_INSTANCE_OF"
	MatchExtracting     = "EXTRACTING"
)

// MatcherSpec describes how a matcher type renders as a call-chain link.
type MatcherSpec struct {
	Type string
	// Method is the AssertJ method name.
	Method string
	// TakesValue reports whether the value is substituted as the call argument.
	TakesValue bool
	// Chainable matchers continue the chain with their own children.
	Chainable bool
}

var matcherSpecs = []MatcherSpec{
	{Type: MatchIsEqualTo, Method: "isEqualTo", TakesValue: true},
	{Type: MatchIsNotEqualTo, Method: "isNotEqualTo", TakesValue: true},
	{Type: MatchIsTrue, Method: "isTrue"},
	{Type: MatchIsFalse, Method: "isFalse"},
	{Type: MatchIsNull, Method: "isNull"},
	{Type: MatchIsNotNull, Method: "isNotNull"},
	{Type: MatchIsEmpty, Method: "isEmpty"},
	{Type: MatchIsNotEmpty, Method: "isNotEmpty"},
	{Type: MatchHasSize, Method: "hasSize", TakesValue: true},
	{Type: MatchContains, Method: "contains", TakesValue: true},
	{Type: MatchDoesNotContain, Method: "doesNotContain", TakesValue: true},
	{Type: MatchStartsWith, Method: "startsWith", TakesValue: true},
	{Type: MatchEndsWith, Method: "endsWith", TakesValue: true},
	{Type: MatchIsGreaterThan, Method: "isGreaterThan", TakesValue: true},
	{Type: MatchIsLessThan, Method: "isLessThan", TakesValue: true},
	{Type: MatchIsBetween, Method: "isBetween", TakesValue: true},
	{Type: MatchIsInstanceOf, Method: "isInstanceOf", TakesValue: true},
	{Type: MatchExtracting, Method: "extracting", TakesValue: true, Chainable: true},
}

// LookupMatcher returns the spec for a matcher type.
func LookupMatcher(matcherType string) (MatcherSpec, bool) {
	for _, s := range matcherSpecs {
		if s.Type == matcherType {
			return s, true
		}
	}
	return MatcherSpec{}, false
}

// LookupMatcherMethod returns the spec whose AssertJ method is method.
func LookupMatcherMethod(method string) (MatcherSpec, bool) {
	for _, s := range matcherSpecs {
		if s.Method == method {
			return s, true
		}
	}
	return MatcherSpec{}, false
}

// MatcherSpecs returns all known matcher specs in catalogue order.
func MatcherSpecs() []MatcherSpec {
	return append([]MatcherSpec(nil), matcherSpecs...)
}

// IsChainable reports whether p is a matcher that accepts child matchers.
func IsChainable(p Payload) bool {
	m, ok := p.(Matcher)
	if !ok {
		return false
	}
	s, ok := LookupMatcher(m.MatcherType)
	return ok && s.Chainable
}
