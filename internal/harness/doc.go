// Package harness runs editing scenarios against the builder core.
//
// A scenario replays a sequence of gestures (drags and drops, field edits,
// rubric links, undo and redo) against a fresh suite store wired to the
// drop-rule engine and the history manager, then checks assertions against
// the generated test source and the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	suite: Calculator
//	rubric:
//	  - {id: r1, name: adds, points: 2}
//	setup:                          # optional starting blocks, document form
//	  - type: function
//	    fields: {funcName: existing}
//	steps:
//	  - drag: {palette: function, fields: {funcName: addsTwoNumbers}}
//	    drop: {zone: canvas}
//	    as: fn
//	    expect: insert
//	  - drag: {template: equality}
//	    drop: {zone: canvas}
//	  - drag: {block: fn}
//	    drop: {zone: trash}
//	  - update: {block: fn, field: funcName, value: renamed}
//	  - link: {block: fn, rubric: r1}
//	  - undo: true
//	  - redo: true
//	  - advance: 500ms
//	  - flush: true
//	assertions:
//	  - type: code_contains
//	    text: "void addsTwoNumbers() {"
//	  - type: history_len
//	    count: 3
//
// Block references in steps are aliases bound by "as" on an earlier drop.
// A template drop bound as "t" also binds "t.0", "t.1", ... to the expanded
// blocks in pre-order. An unknown alias is used as a raw block id.
//
// # Assertion Types
//
//   - code_contains / code_not_contains: generated source contains text
//   - code_order: texts appear in the generated source in order
//   - block_count: number of blocks in the suite
//   - kind_count: number of blocks of one kind
//   - round_trip: parsing the generated source yields the same fingerprint
//   - history_len: number of snapshots, optionally the cursor too
//
// # Deterministic Testing
//
// Scenarios run with sequence ids (b-1, b-2, ...) and a manual scheduler,
// so the debounce window only elapses on "advance" steps. Output is
// identical across runs and suitable for golden comparison.
package harness
