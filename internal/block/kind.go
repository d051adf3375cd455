package block

// Kind identifies the variant of a block.
type Kind string

const (
	KindFunction        Kind = "function"
	KindAnalyzeFunction Kind = "analyzeFunction"
	KindVariable        Kind = "variable"
	KindAssertThat      Kind = "assertThat"
	KindMatcher         Kind = "matcher"
	KindExceptionAssert Kind = "exceptionAssert"
	KindStaticAssert    Kind = "staticAssert"
	KindStructureCheck  Kind = "structureCheck"
	KindComment         Kind = "comment"
)

// Kinds lists every block kind in declaration order.
var Kinds = []Kind{
	KindFunction,
	KindAnalyzeFunction,
	KindVariable,
	KindAssertThat,
	KindMatcher,
	KindExceptionAssert,
	KindStaticAssert,
	KindStructureCheck,
	KindComment,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsFunctionRoot reports whether k may appear at the top level of a suite.
func (k Kind) IsFunctionRoot() bool {
	return k == KindFunction || k == KindAnalyzeFunction
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}
