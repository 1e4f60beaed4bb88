// Package report renders the outcome of corpus builds.
//
// Writers:
//   - SimpleWriter: plain text summary for the terminal
//   - MarkdownWriter: GitHub flavored Markdown for the --report file
//   - JSONWriter: machine readable output, chosen by a .json report path
//
// All writers accept one or more model.Run values so a batch build
// produces a single document.
package report
