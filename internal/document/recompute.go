package document

import (
	"context"

	"github.com/vk/paramdoc/internal/ctxlog"
	"github.com/vk/paramdoc/internal/depgraph"
	"github.com/vk/paramdoc/internal/object"
)

// OutcomeKind classifies one object's result within a recompute pass.
type OutcomeKind int

const (
	// OutcomeOK means the object executed and is Valid.
	OutcomeOK OutcomeKind = iota
	// OutcomeFailed means the object's own execute (or a bound formula)
	// failed.
	OutcomeFailed
	// OutcomeBlocked means the object was skipped because an upstream
	// dependency failed; executing it would have read stale inputs.
	OutcomeBlocked
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Outcome is one entry of the complete per-pass report. No failure is
// swallowed: every object of the touched closure appears exactly once.
type Outcome struct {
	ObjectID string
	Kind     OutcomeKind
	Err      error
}

// buildGraph assembles the ephemeral dependency graph from the current
// structural link edges and expression reference edges. External links and
// references to missing objects contribute no edges; the latter surface as
// unresolved references when the owner evaluates.
func (d *Document) buildGraph() *depgraph.Graph {
	g := depgraph.New()
	for _, id := range d.order {
		g.AddNode(id, d.objects[id].Creation())
	}
	for _, id := range d.order {
		o := d.objects[id]
		for _, l := range o.OutLinks() {
			if l.External {
				continue
			}
			if _, ok := d.objects[l.Target]; ok {
				// The holder depends on its link target.
				_ = g.AddEdge(l.Target, id)
			}
		}
		for _, e := range d.Expressions(id) {
			for _, ref := range e.References() {
				if _, ok := d.objects[ref.Object]; ok {
					_ = g.AddEdge(ref.Object, id)
				}
			}
		}
	}
	return g
}

// Recompute runs one pass: it collects the touched objects, closes the set
// over everything depending on them, orders the closure topologically
// (creation order breaks ties), and executes strictly sequentially.
//
// A cycle in the combined link+expression edge set aborts the pass before
// any object enters Recomputing; the returned *depgraph.CycleError names
// the participants and the document is left untouched. Per-object failures
// do not abort the pass: the failed object is marked Error, everything
// downstream of it is blocked, and independent branches still execute. The
// returned outcome list is always complete for the pass.
func (d *Document) Recompute(ctx context.Context) ([]Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	g := d.buildGraph()
	if cerr := g.DetectCycles(); cerr != nil {
		logger.Error("recompute aborted: dependency cycle", "members", cerr.Members)
		return nil, cerr
	}

	var seeds []string
	for _, id := range d.order {
		if d.objects[id].Status() == object.Touched {
			seeds = append(seeds, id)
		}
	}
	if len(seeds) == 0 {
		logger.Debug("recompute: nothing touched")
		return nil, nil
	}

	closure := g.Closure(seeds)
	order := g.TopoOrder(closure)
	logger.Debug("recompute pass starting", "touched", len(seeds), "closure", len(order))

	failed := make(map[string]bool)
	outcomes := make([]Outcome, 0, len(order))
	for _, id := range order {
		o := d.objects[id]

		if upstream := firstFailedDep(g, id, failed); upstream != "" {
			berr := &BlockedError{ObjectID: id, Upstream: upstream}
			o.SetStatus(object.Error, berr)
			failed[id] = true
			outcomes = append(outcomes, Outcome{ObjectID: id, Kind: OutcomeBlocked, Err: berr})
			logger.Warn("skipping object: upstream failed", "object", id, "upstream", upstream)
			continue
		}

		o.SetStatus(object.Recomputing, nil)
		err := d.evaluateExpressions(o)
		if err == nil {
			err = o.Execute(ctx, d)
		}
		if err != nil {
			xerr := &ExecuteError{ObjectID: id, Err: err}
			o.SetStatus(object.Error, xerr)
			failed[id] = true
			outcomes = append(outcomes, Outcome{ObjectID: id, Kind: OutcomeFailed, Err: xerr})
			logger.Error("object failed to recompute", "object", id, "error", err)
			continue
		}

		o.Properties().ClearTouched()
		o.SetStatus(object.Valid, nil)
		outcomes = append(outcomes, Outcome{ObjectID: id, Kind: OutcomeOK})
		logger.Debug("object recomputed", "object", id)
	}

	logger.Info("recompute pass finished", "objects", len(outcomes), "failed", len(failed))
	return outcomes, nil
}

// firstFailedDep returns the first (sorted) direct dependency of id that
// failed earlier in the pass, or "".
func firstFailedDep(g *depgraph.Graph, id string, failed map[string]bool) string {
	for _, dep := range g.Dependencies(id) {
		if failed[dep] {
			return dep
		}
	}
	return ""
}
