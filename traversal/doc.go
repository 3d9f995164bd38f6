// Package traversal enumerates and reads the files a search covers.
//
// Collect lists the regular files directly inside the root and, at depth 2,
// inside each immediate subdirectory. Hidden entries, paths ignored by git
// and binary files are skipped, and an optional glob filters on the base
// name. The result is sorted deterministically: root files first, then each
// subdirectory in name order.
//
// Read loads the collected files and numbers them 0..n-1. That number is the
// only ordering key the rest of the search uses.
package traversal
