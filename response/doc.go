// Package response turns raw model answers into per-file match records.
//
// # Answer grammar
//
//	response   := { line "\n" }
//	line       := blank | fence | none | directive | other
//	fence      := "```" [lang]
//	none       := "NONE"
//	directive  := [bullet] id ":" range { "," range }
//	bullet     := "-" | "*"
//	range      := start [ "-" end ]
//
// Ids are the 1-based file ids assigned by the request package. Ranges are
// 1-based and inclusive. Unknown ids and ranges outside the file are dropped
// with a diagnostic; the rest of the answer still counts.
//
// When an answer holds no directive at all, its lines are taken to be copies
// of matching source lines and are located in the batch files by content.
//
// Parsing is deterministic: the same answer for the same batch always yields
// the same records and diagnostics.
package response
