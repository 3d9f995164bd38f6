// Package output releases match records in traversal order and renders them.
//
// Batches complete in arbitrary order. The Assembler holds per-file results
// until every file with a smaller sequence index has been released, so the
// rendered stream always follows the order in which files were enumerated.
//
// Two renderers consume the same record stream:
//
//   - TTYRenderer prints a bold path header followed by numbered lines, with
//     a faint line-number column and a blank line between non-contiguous
//     groups.
//   - PipeRenderer prints one "path:line:text" line per matched line.
//
// RenderPlan prints the dry-run preview of a batch plan.
package output
