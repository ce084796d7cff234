// Package main provides the entry point for the citetree CLI.
//
// citetree crawls the citation graph around a set of seed papers using
// the Semantic Scholar Graph API and stores the result in a local
// SQLite database. Crawls are resumable: re-running a crawl fetches
// only what previous runs have not already covered.
//
// Usage:
//
//	citetree add <paper-id> [<paper-id>...]
//	citetree status
//
// See --help for all available options.
package main

// main is the entry point for citetree.
func main() {
	Execute()
}
