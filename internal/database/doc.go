// Package database provides the SQLite crawl ledger for sitecorpus.
//
// The ledger keeps one row per visited URL with the outcome of its most
// recent fetch, so a crawl can be inspected after the fact: which pages
// failed, which served only a JavaScript placeholder, and which file each
// page landed in.
//
// modernc.org/sqlite is used so the binary stays CGO-free; the ledger is
// a single file and needs no server.
package database
