// Package database provides SQLite-based storage for the citation graph.
//
// This package implements the GraphDB, which stores:
//   - Paper nodes with attributes, crawl depth, and expansion state
//   - Directed citation edges with influence flags
//   - Crawl roots recording where each crawl started
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the graph is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for graphs of millions of edges
// 4. WAL mode provides good concurrent read performance
//
// All graph mutations from one expansion are applied in a single
// transaction, so an interrupted crawl never leaves a node marked
// expanded without its edges.
package database
