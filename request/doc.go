// Package request turns a batch of candidate files into the payload sent to
// the model endpoint.
//
// Encoding is a pure function of the batch, the query and the model name.
// Files are addressed by 1-based ids in batch order, and every line is
// prefixed with its line number so the model can answer with line ranges.
package request
