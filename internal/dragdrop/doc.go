// Package dragdrop turns drag-and-drop gestures into Suite Store mutations.
//
// A gesture moves through idle -> dragging -> (dropped | cancelled) -> idle.
// Nothing is mutated until a drop lands on a zone that accepts the source;
// an incompatible drop, a drop outside every zone and an explicit cancel all
// leave the store untouched and surface no error.
//
// Compatibility:
//
//	zone             parent                       accepts
//	canvas           none                         function, analyzeFunction
//	function-body    function                     variable, assertThat, exceptionAssert,
//	                                              staticAssert, comment
//	analyze-body     analyzeFunction              structureCheck, comment
//	assertion-chain  assertThat, EXTRACTING       matcher
//	trash            none                         any existing block
//
// A palette source inserts a new block (or expands a template). An existing
// block dropped under a different parent is reparented; under the same
// parent it is reordered among its siblings. Every applied drop ends with an
// explicit history boundary so one gesture becomes one undo step.
package dragdrop
