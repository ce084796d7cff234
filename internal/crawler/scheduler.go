package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scholarbase/citetree/internal/api"
	"github.com/scholarbase/citetree/internal/model"
)

var (
	// ErrNoValidSeeds is returned when no seed identifier survives
	// normalization.
	ErrNoValidSeeds = errors.New("no valid seed identifiers")

	// ErrSeedFailed is returned when at least one seed could not be
	// resolved against the API. The crawl still runs for the remaining
	// seeds and partial results are persisted.
	ErrSeedFailed = errors.New("one or more seeds failed to resolve")
)

// Fetcher retrieves paper metadata and neighborhoods from the citation
// API. *api.Client satisfies it.
type Fetcher interface {
	ResolvePaper(ctx context.Context, id string) (api.PaperRecord, error)
	FetchNeighbors(ctx context.Context, q api.NeighborQuery) (*api.NeighborPage, error)
}

// Store is the graph persistence the scheduler crawls against.
// *database.GraphDB satisfies it.
type Store interface {
	GetCrawlState(ctx context.Context, paperID string) (model.CrawlState, bool, error)
	UpsertPaper(ctx context.Context, paper *model.Paper) error
	ApplyExpansion(ctx context.Context, exp *model.Expansion) (int, error)
	RecordAttempt(ctx context.Context, paperID string, depth int, direction model.Direction, state model.ExpansionState) error
	Neighbors(ctx context.Context, paperID string, direction model.Direction) ([]model.Edge, error)
	AddRoot(ctx context.Context, root *model.CrawlRoot) error
}

// Scheduler performs breadth-first expansion of the citation graph from
// a set of seed papers, bounded by a maximum depth and honoring the
// configured direction, per-node limit, and influential-only filter.
// Work already satisfied by a prior run is served from the store.
type Scheduler struct {
	// fetcher retrieves neighborhoods from the API.
	fetcher Fetcher

	// store persists the graph.
	store Store

	// logger receives progress and warning events.
	logger *slog.Logger

	// maxDepth limits how far to expand from the seeds.
	// 0 means the seeds are resolved but nothing is expanded.
	maxDepth int

	// direction selects citations or references.
	direction model.Direction

	// perNodeLimit caps the neighbors fetched per expansion.
	// 0 or negative means unbounded.
	perNodeLimit int

	// influentialOnly restricts expansion to influential edges.
	influentialOnly bool

	// workers bounds concurrent expansions within one depth level.
	workers int

	// retryFailed re-attempts nodes a previous run marked failed.
	retryFailed bool

	// retryCfg governs per-fetch retry behavior.
	retryCfg api.RetryConfig
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth sets the maximum expansion depth.
// 0 = seeds only, 1 = seeds plus their direct neighbors, etc.
func WithMaxDepth(depth int) Option {
	return func(s *Scheduler) {
		s.maxDepth = depth
	}
}

// WithDirection selects whether to follow citations or references.
func WithDirection(d model.Direction) Option {
	return func(s *Scheduler) {
		s.direction = d
	}
}

// WithPerNodeLimit caps how many neighbors each expansion fetches.
// 0 or negative means unbounded.
func WithPerNodeLimit(n int) Option {
	return func(s *Scheduler) {
		s.perNodeLimit = n
	}
}

// WithInfluentialOnly restricts the crawl to influential edges.
func WithInfluentialOnly(v bool) Option {
	return func(s *Scheduler) {
		s.influentialOnly = v
	}
}

// WithWorkers bounds concurrent expansions within one depth level.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRetryFailed re-attempts nodes a previous run marked failed.
func WithRetryFailed(v bool) Option {
	return func(s *Scheduler) {
		s.retryFailed = v
	}
}

// WithLogger sets the logger for progress and warning events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRetryConfig overrides the per-fetch retry behavior.
func WithRetryConfig(cfg api.RetryConfig) Option {
	return func(s *Scheduler) {
		s.retryCfg = cfg
	}
}

// NewScheduler creates a Scheduler crawling fetcher results into store.
func NewScheduler(fetcher Fetcher, store Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:   fetcher,
		store:     store,
		logger:    slog.New(slog.DiscardHandler),
		maxDepth:  2,
		direction: model.DirectionCitations,
		workers:   1,
		retryCfg:  api.DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Stats summarizes one crawl run.
type Stats struct {
	// NodesExpanded counts nodes whose neighborhoods were fetched from
	// the API this run.
	NodesExpanded int

	// NodesFromCache counts nodes served from the store without a fetch.
	NodesFromCache int

	// NodesFailed counts nodes marked failed this run.
	NodesFailed int

	// EdgesAdded counts edges newly added to the graph.
	EdgesAdded int

	// SeedsResolved counts seeds successfully resolved.
	SeedsResolved int

	// SeedsFailed counts seeds that could not be resolved, or whose
	// depth-0 expansion exhausted its retries. Either way the run
	// returns ErrSeedFailed.
	SeedsFailed int
}

// task is one queue entry of the breadth-first walk.
type task struct {
	id    string
	depth int
}

// Crawl expands the graph outward from the given raw seed identifiers.
//
// Seeds that fail normalization are logged and skipped; if none survive,
// ErrNoValidSeeds is returned. Seeds that cannot be resolved against the
// API, or whose own expansion exhausts its retries, are recorded as
// failed and the run continues with the rest, returning ErrSeedFailed at
// the end so callers can distinguish a partial crawl. Store failures
// abort the run.
//
// Crawl is interrupt-safe: when ctx is canceled, in-flight store
// transactions complete and the partial graph remains consistent and
// resumable.
func (s *Scheduler) Crawl(ctx context.Context, seeds []string) (*Stats, error) {
	stats := &Stats{}

	level, err := s.resolveSeeds(ctx, seeds, stats)
	if err != nil {
		return stats, err
	}

	visited := make(map[string]bool, len(level))
	for _, t := range level {
		visited[t.id] = true
	}

	for depth := 0; len(level) > 0; depth++ {
		s.logger.Info("expanding depth level",
			"depth", depth, "nodes", len(level))

		next, err := s.processLevel(ctx, level, visited, stats)
		if err != nil {
			return stats, err
		}
		level = next
	}

	if stats.SeedsFailed > 0 {
		return stats, ErrSeedFailed
	}
	return stats, nil
}

// resolveSeeds normalizes and resolves the raw seed identifiers,
// recording a crawl root per resolved seed. It returns the depth-0
// level, deduplicated. Lost seeds are counted in stats rather than
// failing the call, so the crawl proceeds with what resolved.
func (s *Scheduler) resolveSeeds(ctx context.Context, seeds []string, stats *Stats) ([]task, error) {
	seen := make(map[string]bool, len(seeds))
	level := make([]task, 0, len(seeds))
	anyValid := false

	for _, raw := range seeds {
		id, err := model.NormalizePaperID(raw)
		if err != nil {
			s.logger.Warn("skipping invalid seed identifier",
				"seed", raw, "error", err)
			continue
		}
		anyValid = true
		if seen[id] {
			continue
		}
		seen[id] = true

		rec, err := s.resolveSeed(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("seed failed to resolve", "seed", raw, "id", id, "error", err)
			if err := s.store.RecordAttempt(context.WithoutCancel(ctx), id, 0, s.direction, model.ExpansionFailed); err != nil {
				return nil, err
			}
			stats.SeedsFailed++
			continue
		}

		// The API may canonicalize the identifier further (e.g. a DOI
		// resolving to its S2 paper ID).
		if err := s.store.UpsertPaper(ctx, &model.Paper{
			ID:            rec.ID,
			Title:         rec.Title,
			Year:          rec.Year,
			CitationCount: rec.CitationCount,
			MinDepth:      0,
			State:         model.ExpansionUnexpanded,
		}); err != nil {
			return nil, err
		}
		if err := s.store.AddRoot(ctx, &model.CrawlRoot{
			PaperID:    rec.ID,
			OriginalID: raw,
			Depth:      s.maxDepth,
			Direction:  s.direction,
		}); err != nil {
			return nil, err
		}

		stats.SeedsResolved++
		level = append(level, task{id: rec.ID, depth: 0})
	}

	if !anyValid {
		return nil, ErrNoValidSeeds
	}
	return level, nil
}

// resolveSeed resolves one normalized identifier with retries.
func (s *Scheduler) resolveSeed(ctx context.Context, id string) (api.PaperRecord, error) {
	var rec api.PaperRecord
	retrier := api.NewRetrier(s.retryCfg)
	err := retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.fetcher.ResolvePaper(ctx, id)
		return err
	})
	return rec, err
}

// processLevel expands every node of one depth level, bounded by the
// worker limit, and returns the deduplicated next level.
func (s *Scheduler) processLevel(ctx context.Context, level []task, visited map[string]bool, stats *Stats) ([]task, error) {
	var (
		mu   sync.Mutex
		next []task
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, t := range level {
		g.Go(func() error {
			children, delta, err := s.processNode(gctx, t)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			stats.NodesExpanded += delta.NodesExpanded
			stats.NodesFromCache += delta.NodesFromCache
			stats.NodesFailed += delta.NodesFailed
			stats.EdgesAdded += delta.EdgesAdded
			stats.SeedsFailed += delta.SeedsFailed
			for _, c := range children {
				if visited[c.id] {
					continue
				}
				visited[c.id] = true
				next = append(next, c)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// processNode handles one dequeued (id, depth) pair: serve it from the
// store if a prior run already expanded it, otherwise fetch and commit
// its neighborhood. It returns the children to enqueue at depth+1.
func (s *Scheduler) processNode(ctx context.Context, t task) ([]task, Stats, error) {
	var delta Stats

	if t.depth >= s.maxDepth {
		// Leaf. Its row and depth were already merged when the parent's
		// expansion was committed.
		return nil, delta, nil
	}

	state, known, err := s.store.GetCrawlState(ctx, t.id)
	if err != nil {
		return nil, delta, err
	}

	// A stored expansion only satisfies a crawl in the direction it was
	// fetched under; the other direction is a different neighbor set.
	if known && state.Satisfies(s.direction) {
		children, err := s.replayFromStore(ctx, t)
		if err != nil {
			return nil, delta, err
		}
		delta.NodesFromCache++
		return children, delta, nil
	}

	if known && state.State == model.ExpansionFailed && state.Direction == s.direction && !s.retryFailed {
		s.logger.Debug("skipping previously failed node", "id", t.id)
		return nil, delta, nil
	}

	page, err := s.fetchNeighbors(ctx, t.id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, delta, ctx.Err()
		}
		s.logger.Warn("node expansion failed", "id", t.id, "depth", t.depth, "error", err)
		if err := s.store.RecordAttempt(context.WithoutCancel(ctx), t.id, t.depth, s.direction, model.ExpansionFailed); err != nil {
			return nil, delta, err
		}
		delta.NodesFailed++
		if t.depth == 0 {
			// A seed that cannot be expanded fails the run the same way
			// a seed that cannot be resolved does.
			delta.SeedsFailed++
		}
		return nil, delta, nil
	}

	exp := s.buildExpansion(t, page)
	added, err := s.store.ApplyExpansion(context.WithoutCancel(ctx), exp)
	if err != nil {
		return nil, delta, err
	}
	delta.NodesExpanded++
	delta.EdgesAdded += added

	children, err := s.enqueueable(ctx, t, edgeTargets(exp.Edges))
	if err != nil {
		return nil, delta, err
	}
	return children, delta, nil
}

// replayFromStore serves an already-expanded node's neighbors from the
// store, merging the shallower depths this run discovered them at.
func (s *Scheduler) replayFromStore(ctx context.Context, t task) ([]task, error) {
	edges, err := s.store.Neighbors(ctx, t.id, s.direction)
	if err != nil {
		return nil, err
	}
	if s.influentialOnly {
		// The store may hold non-influential edges from an unrestricted
		// run; this run must not traverse them.
		influential := make([]model.Edge, 0, len(edges))
		for _, e := range edges {
			if e.Influential {
				influential = append(influential, e)
			}
		}
		edges = influential
	}

	// The node and its neighbors may have been reached more shallowly
	// this run than when they were first stored.
	if err := s.store.UpsertPaper(ctx, &model.Paper{ID: t.id, MinDepth: t.depth}); err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := s.store.UpsertPaper(ctx, &model.Paper{ID: e.To, MinDepth: t.depth + 1}); err != nil {
			return nil, err
		}
	}

	return s.enqueueable(ctx, t, edgeTargets(edges))
}

// fetchNeighbors retrieves one node's neighborhood with retries.
func (s *Scheduler) fetchNeighbors(ctx context.Context, id string) (*api.NeighborPage, error) {
	var page *api.NeighborPage
	retrier := api.NewRetrier(s.retryCfg)
	err := retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = s.fetcher.FetchNeighbors(ctx, api.NeighborQuery{
			ID:              id,
			Direction:       s.direction,
			InfluentialOnly: s.influentialOnly,
			Limit:           s.perNodeLimit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// buildExpansion converts one fetched neighborhood into the atomic
// commit unit the store applies.
func (s *Scheduler) buildExpansion(t task, page *api.NeighborPage) *model.Expansion {
	state := model.ExpansionExpanded
	if page.Truncated {
		state = model.ExpansionTruncated
	}

	exp := &model.Expansion{
		ID:        t.id,
		Depth:     t.depth,
		State:     state,
		Direction: s.direction,
		Edges:     make([]model.Edge, 0, len(page.Neighbors)),
		Neighbors: make([]model.Paper, 0, len(page.Neighbors)),
	}
	for i := range page.Neighbors {
		n := &page.Neighbors[i]
		exp.Edges = append(exp.Edges, model.Edge{
			From:        t.id,
			To:          n.ID,
			Kind:        s.direction.EdgeKind(),
			Influential: n.Influential,
		})
		exp.Neighbors = append(exp.Neighbors, model.Paper{
			ID:            n.ID,
			Title:         n.Title,
			Year:          n.Year,
			CitationCount: n.CitationCount,
			MinDepth:      t.depth + 1,
			State:         model.ExpansionUnexpanded,
		})
	}
	return exp
}

// enqueueable filters a node's neighbors down to the ones worth
// enqueueing at depth+1: within the depth budget, and not already
// expanded in this direction at an equal or shallower depth by a prior
// run. The latter check is what terminates cycles that span runs.
func (s *Scheduler) enqueueable(ctx context.Context, t task, neighborIDs []string) ([]task, error) {
	childDepth := t.depth + 1
	if childDepth > s.maxDepth {
		return nil, nil
	}

	children := make([]task, 0, len(neighborIDs))
	for _, id := range neighborIDs {
		state, known, err := s.store.GetCrawlState(ctx, id)
		if err != nil {
			return nil, err
		}
		if known && state.Satisfies(s.direction) && state.MinDepth <= childDepth {
			continue
		}
		children = append(children, task{id: id, depth: childDepth})
	}
	return children, nil
}

// edgeTargets extracts the destination IDs of a node's edges.
func edgeTargets(edges []model.Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.To)
	}
	return ids
}

// String describes the run for logging.
func (st *Stats) String() string {
	return fmt.Sprintf("expanded=%d cached=%d failed=%d edges_added=%d seeds_resolved=%d seeds_failed=%d",
		st.NodesExpanded, st.NodesFromCache, st.NodesFailed, st.EdgesAdded,
		st.SeedsResolved, st.SeedsFailed)
}
