package txn

import (
	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/recordstore"
)

// chainNext/chainPrev/setChainNext/setChainPrev view a relationship
// record's four adjacency-chain pointer fields through the lens of one
// participating node: a node's FirstRel chain interleaves the
// relationships where it plays Start and the ones where it plays End,
// using whichever pair of pointer fields that role owns. A self-loop
// (Start == End == node) is treated as occupying the Start/NextOut
// slot only, matching pkg/adjacency's RebuildNode walk.
func chainNext(rec recordstore.RelRecord, node graph.NodeId) graph.RelId {
	switch {
	case rec.Start == node:
		return rec.NextOut
	case rec.End == node:
		return rec.NextIn
	default:
		return graph.InvalidRelId
	}
}

func chainPrev(rec recordstore.RelRecord, node graph.NodeId) graph.RelId {
	switch {
	case rec.Start == node:
		return rec.PrevOut
	case rec.End == node:
		return rec.PrevIn
	default:
		return graph.InvalidRelId
	}
}

func setChainNext(rec *recordstore.RelRecord, node graph.NodeId, val graph.RelId) {
	switch {
	case rec.Start == node:
		rec.NextOut = val
	case rec.End == node:
		rec.NextIn = val
	}
}

func setChainPrev(rec *recordstore.RelRecord, node graph.NodeId, val graph.RelId) {
	switch {
	case rec.Start == node:
		rec.PrevOut = val
	case rec.End == node:
		rec.PrevIn = val
	}
}

// spliceIntoChain prepends relID to node's relationship chain.
func spliceIntoChain(nodes *recordstore.NodeStore, rels *recordstore.RelationshipStore, node graph.NodeId, relID graph.RelId) error {
	nrec, err := nodes.GetNode(node)
	if err != nil {
		return err
	}
	head := nrec.FirstRel

	rec, err := rels.GetRelationship(relID)
	if err != nil {
		return err
	}
	setChainNext(&rec, node, head)
	setChainPrev(&rec, node, graph.InvalidRelId)
	if err := rels.PutRelationship(rec); err != nil {
		return err
	}

	if head != graph.InvalidRelId {
		headRec, err := rels.GetRelationship(head)
		if err != nil {
			return err
		}
		setChainPrev(&headRec, node, relID)
		if err := rels.PutRelationship(headRec); err != nil {
			return err
		}
	}
	return nodes.SetFirstRel(node, relID)
}

// unspliceFromChain removes relID from node's relationship chain,
// relinking its neighbors.
func unspliceFromChain(nodes *recordstore.NodeStore, rels *recordstore.RelationshipStore, node graph.NodeId, relID graph.RelId) error {
	rec, err := rels.GetRelationship(relID)
	if err != nil {
		return err
	}
	prev := chainPrev(rec, node)
	next := chainNext(rec, node)

	if prev != graph.InvalidRelId {
		prevRec, err := rels.GetRelationship(prev)
		if err != nil {
			return err
		}
		setChainNext(&prevRec, node, next)
		if err := rels.PutRelationship(prevRec); err != nil {
			return err
		}
	} else {
		if err := nodes.SetFirstRel(node, next); err != nil {
			return err
		}
	}

	if next != graph.InvalidRelId {
		nextRec, err := rels.GetRelationship(next)
		if err != nil {
			return err
		}
		setChainPrev(&nextRec, node, prev)
		if err := rels.PutRelationship(nextRec); err != nil {
			return err
		}
	}
	return nil
}

// incidentRelIDs walks node's authoritative chain and returns every
// live relationship id attached to it, used by DetachDelete.
func incidentRelIDs(nodes *recordstore.NodeStore, rels *recordstore.RelationshipStore, node graph.NodeId) ([]graph.RelId, error) {
	nrec, err := nodes.GetNode(node)
	if err != nil {
		return nil, err
	}
	var out []graph.RelId
	seen := make(map[graph.RelId]bool)
	for relID := nrec.FirstRel; relID != graph.InvalidRelId; {
		if seen[relID] {
			break
		}
		seen[relID] = true
		rrec, err := rels.GetRelationship(relID)
		if err != nil {
			return nil, err
		}
		out = append(out, relID)
		relID = chainNext(rrec, node)
	}
	return out, nil
}
