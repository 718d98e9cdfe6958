package recordstore

import (
	"encoding/binary"

	"github.com/cuemby/graphd/pkg/graph"
)

// maxInlineLabels bounds how many labels a single node record can carry
// without overflowing its fixed stride. A node needing more labels than
// this is outside the scope of the fixed-stride format; the
// specification's data model does not anticipate it.
const maxInlineLabels = 8

const nodeStride = 1 /*flags*/ + 1 /*label count*/ + 2 /*reserved*/ +
	4*maxInlineLabels /*label ids*/ + 8 /*first rel ptr*/ + 8 /*prop ptr*/

// NodeRecord is the decoded, typed view of one node record.
type NodeRecord struct {
	ID       graph.NodeId
	Deleted  bool
	Labels   []graph.LabelId
	FirstRel graph.RelId
	PropPtr  uint64
}

func (r NodeRecord) encode() []byte {
	buf := make([]byte, nodeStride)
	flags := flagInUse
	if r.Deleted {
		flags |= flagDeleted
	}
	buf[0] = flags
	buf[1] = byte(len(r.Labels))
	for i, lid := range r.Labels {
		if i >= maxInlineLabels {
			break
		}
		binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], uint32(lid))
	}
	binary.LittleEndian.PutUint64(buf[4+4*maxInlineLabels:12+4*maxInlineLabels], uint64(r.FirstRel))
	binary.LittleEndian.PutUint64(buf[12+4*maxInlineLabels:20+4*maxInlineLabels], r.PropPtr)
	return buf
}

func decodeNodeRecord(id graph.NodeId, raw []byte) NodeRecord {
	count := int(raw[1])
	if count > maxInlineLabels {
		count = maxInlineLabels
	}
	labels := make([]graph.LabelId, count)
	for i := 0; i < count; i++ {
		labels[i] = graph.LabelId(binary.LittleEndian.Uint32(raw[4+4*i : 8+4*i]))
	}
	return NodeRecord{
		ID:       id,
		Deleted:  raw[0]&flagDeleted != 0,
		Labels:   labels,
		FirstRel: graph.RelId(binary.LittleEndian.Uint64(raw[4+4*maxInlineLabels : 12+4*maxInlineLabels])),
		PropPtr:  binary.LittleEndian.Uint64(raw[12+4*maxInlineLabels : 20+4*maxInlineLabels]),
	}
}

// NodeStore is the fixed-stride record file for nodes.
type NodeStore struct {
	*Store
}

// OpenNodeStore opens (creating if absent) the node record file at path.
func OpenNodeStore(path string, opts Options) (*NodeStore, error) {
	s, err := Open(path, nodeStride, opts)
	if err != nil {
		return nil, err
	}
	return &NodeStore{Store: s}, nil
}

// CreateNode allocates a new node record carrying labels and no
// relationships or properties yet.
func (s *NodeStore) CreateNode(labels []graph.LabelId) (graph.NodeId, error) {
	id, err := s.Allocate()
	if err != nil {
		return 0, err
	}
	rec := NodeRecord{ID: graph.NodeId(id), Labels: labels, FirstRel: graph.InvalidRelId, PropPtr: graph.NoPropPtr}
	if err := s.Write(id, rec.encode()); err != nil {
		return 0, err
	}
	return graph.NodeId(id), nil
}

// PutNode writes back a fully-formed record, used by pkg/txn's WAL
// redo to recreate a node at the id its original CREATE was assigned.
func (s *NodeStore) PutNode(rec NodeRecord) error {
	return s.Write(uint64(rec.ID), rec.encode())
}

// GetNode reads the full record for id.
func (s *NodeStore) GetNode(id graph.NodeId) (NodeRecord, error) {
	raw, err := s.Read(uint64(id))
	if err != nil {
		return NodeRecord{}, err
	}
	return decodeNodeRecord(id, raw), nil
}

// SetLabels overwrites the label set of an existing node.
func (s *NodeStore) SetLabels(id graph.NodeId, labels []graph.LabelId) error {
	rec, err := s.GetNode(id)
	if err != nil {
		return err
	}
	rec.Labels = labels
	return s.Write(uint64(id), rec.encode())
}

// SetFirstRel updates the head of a node's relationship chain.
func (s *NodeStore) SetFirstRel(id graph.NodeId, rel graph.RelId) error {
	rec, err := s.GetNode(id)
	if err != nil {
		return err
	}
	rec.FirstRel = rel
	return s.Write(uint64(id), rec.encode())
}

// SetPropPtr updates a node's property-store pointer.
func (s *NodeStore) SetPropPtr(id graph.NodeId, ptr uint64) error {
	rec, err := s.GetNode(id)
	if err != nil {
		return err
	}
	rec.PropPtr = ptr
	return s.Write(uint64(id), rec.encode())
}

// DeleteNode tombstones id. Callers are responsible for having already
// detached all incident relationships (see pkg/txn's
// WriteTx.DetachDeleteNode) before calling this.
func (s *NodeStore) DeleteNode(id graph.NodeId) error {
	return s.MarkDeleted(uint64(id))
}
