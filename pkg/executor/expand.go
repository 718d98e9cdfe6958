package executor

import (
	"github.com/cuemby/graphd/pkg/adjacency"
	"github.com/cuemby/graphd/pkg/cypher/ast"
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
	"github.com/cuemby/graphd/pkg/txn"
)

// directionsFor translates a parsed pattern direction into the one or
// two adjacency.Direction values it must be walked in: DirEither reads
// both a node's outgoing and incoming blocks.
func directionsFor(dir ast.Direction) []adjacency.Direction {
	switch dir {
	case ast.DirOutgoing:
		return []adjacency.Direction{adjacency.Outgoing}
	case ast.DirIncoming:
		return []adjacency.Direction{adjacency.Incoming}
	default:
		return []adjacency.Direction{adjacency.Outgoing, adjacency.Incoming}
	}
}

// hop is one (relationship, neighbor node) pair reached from a source
// node in a given direction.
type hop struct {
	relID  graph.RelId
	target graph.NodeId
}

// neighbors returns every hop leaving source across typeIDs (every
// type present if typeIDs is empty) in every direction dirs names.
func neighbors(stores *txn.Stores, source graph.NodeId, typeIDs []graph.TypeId, dirs []adjacency.Direction) ([]hop, error) {
	var out []hop
	for _, dir := range dirs {
		types := typeIDs
		if len(types) == 0 {
			types = stores.Adjacency.Types(source, dir)
		}
		for _, typ := range types {
			relIDs, ok := stores.Adjacency.Get(source, typ, dir)
			if !ok {
				continue
			}
			for _, relID := range relIDs {
				rec, err := stores.Rels.GetRelationship(relID)
				if err != nil {
					return nil, err
				}
				if rec.Deleted {
					continue
				}
				var target graph.NodeId
				if dir == adjacency.Outgoing {
					target = rec.End
				} else {
					target = rec.Start
				}
				out = append(out, hop{relID: relID, target: target})
			}
		}
	}
	return out, nil
}

// buildExpand walks one relationship hop from op.SourceVar, binding
// op.TargetVar (and op.RelVar, if named) for each neighbor found.
// Optional expansion (OPTIONAL MATCH) emits a single null-padded row
// when the source has no matching neighbor, implementing the resolved
// Open Question that OPTIONAL MATCH lowers to a true left outer join
// rather than a filtered inner join.
func buildExpand(stores *txn.Stores, op planner.Expand, upstream Iterator) Iterator {
	dirs := directionsFor(op.Direction)
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		srcVal, ok := row.Get(op.SourceVar)
		if !ok || srcVal.Kind != graph.KindNode {
			if op.Optional {
				return newSliceIterator([]graph.Row{padOptional(row, op.TargetVar, op.RelVar)}), nil
			}
			return newSliceIterator(nil), nil
		}
		hops, err := neighbors(stores, srcVal.Node.ID, op.TypeIDs, dirs)
		if err != nil {
			return nil, err
		}
		if len(hops) == 0 {
			if op.Optional {
				return newSliceIterator([]graph.Row{padOptional(row, op.TargetVar, op.RelVar)}), nil
			}
			return newSliceIterator(nil), nil
		}
		rows := make([]graph.Row, 0, len(hops))
		for _, h := range hops {
			rel, err := loadRel(stores, h.relID)
			if err != nil {
				continue
			}
			target, err := loadNode(stores, h.target)
			if err != nil {
				continue
			}
			out := row.Clone().Set(op.TargetVar, graph.FromNode(target))
			if op.RelVar != "" {
				out = out.Set(op.RelVar, graph.FromRel(rel))
			}
			rows = append(rows, out)
		}
		return newSliceIterator(rows), nil
	})
}

func padOptional(row graph.Row, targetVar, relVar string) graph.Row {
	out := row.Clone()
	if targetVar != "" {
		out = out.Set(targetVar, graph.Null())
	}
	if relVar != "" {
		out = out.Set(relVar, graph.Null())
	}
	return out
}

// buildVariableLengthPath performs a bounded breadth-first walk from
// op.SourceVar, binding op.TargetVar to every node reachable within
// [MinHops, MaxHops] and, if named, op.PathVar to the full alternating
// node/relationship path. Each path tracked during the walk carries
// its own visited set so a cyclic graph can revisit a node via a
// different route without the walk looping forever on any single
// path (spec §4.3's variable-length edge case).
func buildVariableLengthPath(stores *txn.Stores, op planner.VariableLengthPath, upstream Iterator) Iterator {
	dirs := directionsFor(op.Direction)
	maxHops := op.MaxHops
	if maxHops < 0 {
		maxHops = defaultMaxHops
	}
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		srcVal, ok := row.Get(op.SourceVar)
		if !ok || srcVal.Kind != graph.KindNode {
			if op.Optional {
				return newSliceIterator([]graph.Row{padOptional(row, op.TargetVar, op.PathVar)}), nil
			}
			return newSliceIterator(nil), nil
		}

		type partial struct {
			nodes   []graph.NodeId
			rels    []graph.RelId
			visited map[graph.NodeId]bool
		}
		start := partial{nodes: []graph.NodeId{srcVal.Node.ID}, visited: map[graph.NodeId]bool{srcVal.Node.ID: true}}
		frontier := []partial{start}
		var results []partial

		// MinHops == 0 matches the source node itself with an empty
		// relationship list, e.g. *0..2.
		if op.MinHops <= 0 {
			results = append(results, start)
		}

		for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
			var next []partial
			for _, p := range frontier {
				cur := p.nodes[len(p.nodes)-1]
				hops, err := neighbors(stores, cur, op.TypeIDs, dirs)
				if err != nil {
					return nil, err
				}
				for _, h := range hops {
					if p.visited[h.target] {
						continue
					}
					nv := make(map[graph.NodeId]bool, len(p.visited)+1)
					for k := range p.visited {
						nv[k] = true
					}
					nv[h.target] = true
					np := partial{
						nodes:   append(append([]graph.NodeId{}, p.nodes...), h.target),
						rels:    append(append([]graph.RelId{}, p.rels...), h.relID),
						visited: nv,
					}
					if depth+1 >= op.MinHops {
						results = append(results, np)
					}
					next = append(next, np)
				}
			}
			frontier = next
		}

		if len(results) == 0 {
			if op.Optional {
				return newSliceIterator([]graph.Row{padOptional(row, op.TargetVar, op.PathVar)}), nil
			}
			return newSliceIterator(nil), nil
		}

		rows := make([]graph.Row, 0, len(results))
		for _, p := range results {
			target, err := loadNode(stores, p.nodes[len(p.nodes)-1])
			if err != nil {
				continue
			}
			out := row.Clone().Set(op.TargetVar, graph.FromNode(target))
			if op.PathVar != "" {
				pathRef, err := buildPathRef(stores, p.nodes, p.rels)
				if err != nil {
					continue
				}
				out = out.Set(op.PathVar, graph.FromPath(pathRef))
			}
			rows = append(rows, out)
		}
		return newSliceIterator(rows), nil
	})
}

// defaultMaxHops bounds an unbounded `*` variable-length pattern so a
// pathological dense graph can't make a single query loop forever.
const defaultMaxHops = 32

func buildPathRef(stores *txn.Stores, nodeIDs []graph.NodeId, relIDs []graph.RelId) (graph.PathRef, error) {
	nodes := make([]graph.NodeRef, len(nodeIDs))
	for i, id := range nodeIDs {
		n, err := loadNode(stores, id)
		if err != nil {
			return graph.PathRef{}, err
		}
		nodes[i] = n
	}
	rels := make([]graph.RelRef, len(relIDs))
	for i, id := range relIDs {
		r, err := loadRel(stores, id)
		if err != nil {
			return graph.PathRef{}, err
		}
		rels[i] = r
	}
	return graph.PathRef{Nodes: nodes, Rels: rels}, nil
}
