package reactor

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WalkWorkspace visits start and every project reachable from it through [LocalEdges].  Visits
// run in parallel, subject to these guarantees:
//
//   - nodeVisit is called exactly once per project.  If it returns false, the project's edges are
//     not followed (though the project may still be reached through another project's edges).
//   - edgeVisit is called exactly once per followed edge, and only after nodeVisit has returned for
//     both of the edge's endpoints.
//
// Either callback may be nil.  The first error returned by a callback cancels the walk and is
// returned.  For a standalone project only start is visited.
func WalkWorkspace(ctx context.Context, start *Project,
	nodeVisit func(ctx context.Context, p *Project) (bool, error),
	edgeVisit func(ctx context.Context, from, to *Project, kind EdgeKind) error) error {
	return walkGraph(ctx, start, nodeVisit, LocalEdges, edgeVisit)
}

type walkEdge[N comparable, E any] struct {
	from N
	to   N
	kind E
}

// A walker holds the state of one walkGraph call.
type walker[N comparable, E any] struct {
	ctx       context.Context
	gr        *errgroup.Group
	nodeVisit func(ctx context.Context, n N) (bool, error)
	edges     func(n N) iter.Seq2[N, E]
	edgeVisit func(ctx context.Context, from, to N, kind E) error

	q chan walkEdge[N, E]
	// inflight counts queued edges plus running visits.  The queue is closed when it drops to
	// zero.
	inflight atomic.Int32

	// The following are only accessed by the dispatch loop.
	ready  map[N]chan struct{}
	nNodes int
	nEdges int
}

// walkGraph is the generic form of [WalkWorkspace].  The zero value of N must not be a valid node
// because it stands for the parent of start.
func walkGraph[N comparable, E any](ctx context.Context, start N,
	nodeVisit func(ctx context.Context, n N) (bool, error),
	edges func(n N) iter.Seq2[N, E],
	edgeVisit func(ctx context.Context, from, to N, kind E) error) (retErr error) {

	gr, ctx := errgroup.WithContext(ctx)
	w := &walker[N, E]{
		ctx:       ctx,
		gr:        gr,
		nodeVisit: nodeVisit,
		edges:     edges,
		edgeVisit: edgeVisit,
		q:         make(chan walkEdge[N, E]),
		ready:     map[N]chan struct{}{},
	}
	slog.DebugContext(ctx, "walk start", "start", start)
	defer func() {
		slog.DebugContext(ctx, "walk done", "nodes", w.nNodes, "edges", w.nEdges, "err", retErr)
	}()
	w.send(walkEdge[N, E]{to: start})
	gr.Go(w.dispatch)
	return gr.Wait()
}

func (w *walker[N, E]) release() {
	if w.inflight.Add(-1) == 0 {
		close(w.q)
	}
}

// spawn runs f in the errgroup, holding an inflight slot until f returns.
func (w *walker[N, E]) spawn(f func() error) {
	w.inflight.Add(1)
	w.gr.Go(func() error {
		defer w.release()
		return f()
	})
}

// send queues e for the dispatch loop.  The inflight slot taken here is released by dispatch.
func (w *walker[N, E]) send(e walkEdge[N, E]) {
	w.inflight.Add(1)
	w.gr.Go(func() error {
		select {
		case <-w.ctx.Done():
			w.release()
			return context.Cause(w.ctx)
		case w.q <- e:
			return nil
		}
	})
}

// dispatch receives queued edges until the walk is finished.  It is the only goroutine that
// touches the ready map.
func (w *walker[N, E]) dispatch() error {
	for {
		select {
		case <-w.ctx.Done():
			return context.Cause(w.ctx)
		case e, ok := <-w.q:
			if !ok {
				return nil
			}
			w.handle(e)
		}
	}
}

func (w *walker[N, E]) handle(e walkEdge[N, E]) {
	defer w.release()
	w.nEdges++
	toReady, seen := w.ready[e.to]
	if !seen {
		w.nNodes++
		toReady = make(chan struct{})
		w.ready[e.to] = toReady
		w.spawn(func() error { return w.visitNode(e.to, toReady) })
	}
	if w.edgeVisit == nil || e.from == *new(N) {
		return
	}
	fromReady := w.ready[e.from]
	w.spawn(func() error {
		select {
		case <-w.ctx.Done():
			return context.Cause(w.ctx)
		case <-toReady:
		}
		select {
		case <-fromReady:
		default:
			panic(fmt.Errorf("edge %v -> %v visited before its source", e.from, e.to))
		}
		return w.edgeVisit(w.ctx, e.from, e.to, e.kind)
	})
}

func (w *walker[N, E]) visitNode(n N, ready chan struct{}) error {
	descend := true
	if w.nodeVisit != nil {
		var err error
		if descend, err = w.nodeVisit(w.ctx, n); err != nil {
			return err
		}
	}
	close(ready)
	if !descend {
		return nil
	}
	for to, kind := range w.edges(n) {
		w.send(walkEdge[N, E]{from: n, to: to, kind: kind})
	}
	return nil
}
