// Package planner groups candidate files into request batches.
//
// Files are packed greedily in sequence order. A new batch starts when the
// next file would push the current batch past the byte or file budget. A file
// that alone exceeds the byte budget is placed in a batch of its own; it is
// never split and never dropped, so concatenating the batches always
// reproduces the input.
//
// Example:
//
//	batches, err := planner.Plan(files, planner.DefaultBudget())
//	if err != nil {
//	    return err
//	}
package planner
