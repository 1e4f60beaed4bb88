// Package pipeline runs the steps that turn a website into a chunk table:
// crawl, collate and tokenize.
//
// Each step reads the artifact of the step before it from disk and writes
// its own, so steps can be run one at a time from the CLI or together.
// When a step's output already exists and rebuild is off, the step does
// nothing; a missing input is reported as a PrerequisiteError naming the
// step to run first.
//
// BatchProcessor builds several sites concurrently, one Pipeline each,
// bounded with errgroup.
package pipeline
