// Package block defines the data model of the visual test builder: typed
// blocks arranged in a parent-linked tree, suites of blocks, and the
// surrounding workspace state (rubric items, attached source files).
//
// This package contains type definitions and pure tree helpers only. All
// other internal packages import block; block imports nothing internal.
//
// Key constraints:
//   - Payload is a sealed interface: the set of block kinds is closed
//   - Sibling order is the order of Suite.Blocks, never id order
//   - A non-empty ParentID always names a block in the same suite
//   - Following ParentID from any block terminates at a top-level block
package block
