package reactor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/rhansen/reactor/internal/itertools"
)

type tNode string
type tKind string
type tEdges map[tNode]tKind
type tGraph map[tNode]tEdges

func (g tGraph) edges(n tNode) iter.Seq2[tNode, tKind] {
	return maps.All(g[n])
}

// fanGraph returns a graph where "a" points to n middle nodes that all point to "z".
func fanGraph(n int) tGraph {
	g := tGraph{"a": tEdges{}, "z": tEdges{}}
	for i := range itertools.Range(0, n) {
		m := tNode(fmt.Sprintf("m%03d", i))
		g["a"][m] = "out"
		g[m] = tEdges{"z": "in"}
	}
	return g
}

func TestWalkGraph(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		desc string
		g    tGraph
	}{
		{
			desc: "single node",
			g:    tGraph{"a": tEdges{}},
		},
		{
			desc: "chain",
			g: tGraph{
				"a": tEdges{"b": "dependency"},
				"b": tEdges{"c": "module"},
				"c": tEdges{},
			},
		},
		{
			desc: "diamond",
			g: tGraph{
				"a": tEdges{"b": "module", "c": "dependency"},
				"b": tEdges{"d": "dependency"},
				"c": tEdges{"d": "dependency"},
				"d": tEdges{},
			},
		},
		{
			desc: "cycle",
			g: tGraph{
				"a": tEdges{"b": "dependency"},
				"b": tEdges{"a": "dependency"},
			},
		},
		{
			desc: "fan out and in",
			g:    fanGraph(200),
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			// Random sleeps shuffle the interleaving between runs.
			for i := range 5 {
				t.Run(strconv.Itoa(i), func(t *testing.T) {
					t.Parallel()
					var mu sync.Mutex
					got := tGraph{}
					nodeVisit := func(ctx context.Context, n tNode) (bool, error) {
						time.Sleep(rand.N(5 * time.Millisecond))
						mu.Lock()
						defer mu.Unlock()
						if _, ok := got[n]; ok {
							t.Errorf("node %v visited twice", n)
						}
						got[n] = tEdges{}
						return true, nil
					}
					edgeVisit := func(ctx context.Context, from, to tNode, kind tKind) error {
						time.Sleep(rand.N(5 * time.Millisecond))
						mu.Lock()
						defer mu.Unlock()
						if got[from] == nil || got[to] == nil {
							t.Errorf("edge %v -> %v visited before its endpoints", from, to)
							return nil
						}
						if k, ok := got[from][to]; ok {
							t.Errorf("edge %v -> %v (%v) visited twice", from, to, k)
						}
						got[from][to] = kind
						return nil
					}
					if err := walkGraph(t.Context(), "a", nodeVisit, tc.g.edges, edgeVisit); err != nil {
						t.Fatal(err)
					}
					if diff := cmp.Diff(tc.g, got); diff != "" {
						t.Errorf("reconstructed graph differs (-want +got):\n%s", diff)
					}
				})
			}
		})
	}
}

func TestWalkGraph_NoDescend(t *testing.T) {
	t.Parallel()
	g := tGraph{
		"a": tEdges{"b": "module", "c": "dependency"},
		"b": tEdges{"d": "dependency"},
		"c": tEdges{},
		"d": tEdges{},
	}
	var mu sync.Mutex
	got := mapset.NewThreadUnsafeSet[tNode]()
	nodeVisit := func(ctx context.Context, n tNode) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		got.Add(n)
		return n != "b", nil
	}
	if err := walkGraph(t.Context(), "a", nodeVisit, g.edges, nil); err != nil {
		t.Fatal(err)
	}
	want := mapset.NewThreadUnsafeSet[tNode]("a", "b", "c")
	if !got.Equal(want) {
		t.Errorf("got visits %v, want %v", got, want)
	}
}

func TestWalkGraph_ParallelVisits(t *testing.T) {
	t.Parallel()
	const n = 50
	g := fanGraph(n)
	// Every middle node blocks until all of them have entered nodeVisit, which can only happen if the
	// visits run concurrently.
	var entered sync.WaitGroup
	entered.Add(n)
	release := make(chan struct{})
	go func() {
		entered.Wait()
		close(release)
	}()
	nodeVisit := func(ctx context.Context, m tNode) (bool, error) {
		if m == "a" || m == "z" {
			return true, nil
		}
		entered.Done()
		select {
		case <-ctx.Done():
			return false, context.Cause(ctx)
		case <-release:
		}
		return true, nil
	}
	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()
	if err := walkGraph(ctx, "a", nodeVisit, g.edges, nil); err != nil {
		t.Fatal(err)
	}
}

func TestWalkGraph_Errors(t *testing.T) {
	t.Parallel()
	g := fanGraph(100)
	for _, tc := range []struct {
		desc      string
		nodeErr   bool
		edgeErr   bool
		wantEdges bool
	}{
		{
			desc:    "nodeVisit",
			nodeErr: true,
		},
		{
			desc:      "edgeVisit",
			edgeErr:   true,
			wantEdges: true,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			var edges atomic.Int32
			nodeVisit := func(ctx context.Context, n tNode) (bool, error) {
				if tc.nodeErr && n == "a" {
					return false, testErr
				}
				return true, nil
			}
			edgeVisit := func(ctx context.Context, from, to tNode, kind tKind) error {
				edges.Add(1)
				if tc.edgeErr {
					return testErr
				}
				return nil
			}
			err := walkGraph(t.Context(), "a", nodeVisit, g.edges, edgeVisit)
			if !errors.Is(err, testErr) {
				t.Errorf("got error %v, want %v", err, testErr)
			}
			if got := edges.Load() > 0; got != tc.wantEdges {
				t.Errorf("got edge visits %v, want any: %v", edges.Load(), tc.wantEdges)
			}
		})
	}
}

func TestWalkGraph_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancelCause(t.Context())
	cancel(testErr)
	g := fanGraph(10)
	err := walkGraph(ctx, "a", nil, g.edges, nil)
	if !errors.Is(err, testErr) {
		t.Errorf("got error %v, want %v", err, testErr)
	}
}

type testError struct{}

func (testError) Error() string {
	return "testError"
}

var testErr error = testError{}
