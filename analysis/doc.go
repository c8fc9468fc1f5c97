// Package analysis synthesizes value equality for a declaration described by
// the model package. It decides which members take part (Filter), orders them
// by comparison cost (Classify and Sort) and produces the equality and hash
// logic (Synthesize). Analyze runs the whole pipeline for one declaration.
//
// Everything in this package is free of I/O. The same input always yields the
// same result, so declarations can be analyzed concurrently (AnalyzeAll).
package analysis
