// Package model defines the domain types shared across citetree.
//
// This package contains the following main types:
//   - Paper/Edge: The persisted citation graph nodes and relations
//   - ExpansionState: Per-paper crawl progress (unexpanded/expanded/truncated/failed)
//   - Direction: Traversal direction (citations or references)
//   - CrawlRoot: A seed paper recorded with its original identifier
//   - GraphSummary: Store coverage snapshot rendered by the report writers
//
// It also implements paper identifier normalization (NormalizePaperID),
// which canonicalizes every accepted external ID form before any store
// lookup. Types here are plain values with no I/O; persistence and network
// concerns live in the database and api packages.
package model
