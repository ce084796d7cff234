// Package crawler implements the breadth-first citation-graph crawl.
//
// The Scheduler walks outward from a set of seed papers, one depth level
// at a time, fetching each node's citation or reference neighborhood and
// committing it to the graph store. Nodes that a previous run already
// expanded are served from the store instead of the network, which makes
// interrupted or repeated crawls cheap to resume.
package crawler
