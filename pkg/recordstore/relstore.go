package recordstore

import (
	"encoding/binary"

	"github.com/cuemby/graphd/pkg/graph"
)

const relStride = 1 /*flags*/ + 3 /*reserved*/ + 4 /*type id*/ +
	8 /*start*/ + 8 /*end*/ + 8 /*prop ptr*/ +
	8 /*next out*/ + 8 /*prev out*/ + 8 /*next in*/ + 8 /*prev in*/

// RelRecord is the decoded, typed view of one relationship record,
// including its position in both endpoints' doubly-linked adjacency
// chains.
type RelRecord struct {
	ID      graph.RelId
	Deleted bool
	Type    graph.TypeId
	Start   graph.NodeId
	End     graph.NodeId
	PropPtr uint64
	NextOut graph.RelId // next relationship in Start's outgoing chain
	PrevOut graph.RelId
	NextIn  graph.RelId // next relationship in End's incoming chain
	PrevIn  graph.RelId
}

func (r RelRecord) encode() []byte {
	buf := make([]byte, relStride)
	flags := flagInUse
	if r.Deleted {
		flags |= flagDeleted
	}
	buf[0] = flags
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Type))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.Start))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(r.End))
	binary.LittleEndian.PutUint64(buf[24:32], r.PropPtr)
	binary.LittleEndian.PutUint64(buf[32:40], uint64(r.NextOut))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(r.PrevOut))
	binary.LittleEndian.PutUint64(buf[48:56], uint64(r.NextIn))
	binary.LittleEndian.PutUint64(buf[56:64], uint64(r.PrevIn))
	return buf
}

func decodeRelRecord(id graph.RelId, raw []byte) RelRecord {
	return RelRecord{
		ID:      id,
		Deleted: raw[0]&flagDeleted != 0,
		Type:    graph.TypeId(binary.LittleEndian.Uint32(raw[4:8])),
		Start:   graph.NodeId(binary.LittleEndian.Uint64(raw[8:16])),
		End:     graph.NodeId(binary.LittleEndian.Uint64(raw[16:24])),
		PropPtr: binary.LittleEndian.Uint64(raw[24:32]),
		NextOut: graph.RelId(binary.LittleEndian.Uint64(raw[32:40])),
		PrevOut: graph.RelId(binary.LittleEndian.Uint64(raw[40:48])),
		NextIn:  graph.RelId(binary.LittleEndian.Uint64(raw[48:56])),
		PrevIn:  graph.RelId(binary.LittleEndian.Uint64(raw[56:64])),
	}
}

// RelationshipStore is the fixed-stride record file for relationships.
type RelationshipStore struct {
	*Store
}

// OpenRelationshipStore opens (creating if absent) the relationship
// record file at path.
func OpenRelationshipStore(path string, opts Options) (*RelationshipStore, error) {
	s, err := Open(path, relStride, opts)
	if err != nil {
		return nil, err
	}
	return &RelationshipStore{Store: s}, nil
}

// CreateRelationship allocates a new relationship record. The caller
// (pkg/txn's write-transaction path) is responsible for splicing it
// into start and end's adjacency chains and updating their first_rel
// pointers; this method only reserves and initializes the record.
func (s *RelationshipStore) CreateRelationship(typ graph.TypeId, start, end graph.NodeId) (graph.RelId, error) {
	id, err := s.Allocate()
	if err != nil {
		return 0, err
	}
	rec := RelRecord{
		ID: graph.RelId(id), Type: typ, Start: start, End: end,
		PropPtr: graph.NoPropPtr,
		NextOut: graph.InvalidRelId, PrevOut: graph.InvalidRelId,
		NextIn: graph.InvalidRelId, PrevIn: graph.InvalidRelId,
	}
	if err := s.Write(id, rec.encode()); err != nil {
		return 0, err
	}
	return graph.RelId(id), nil
}

// GetRelationship reads the full record for id.
func (s *RelationshipStore) GetRelationship(id graph.RelId) (RelRecord, error) {
	raw, err := s.Read(uint64(id))
	if err != nil {
		return RelRecord{}, err
	}
	return decodeRelRecord(id, raw), nil
}

// PutRelationship writes back a fully-formed record, used when splicing
// or unsplicing adjacency chain pointers.
func (s *RelationshipStore) PutRelationship(rec RelRecord) error {
	return s.Write(uint64(rec.ID), rec.encode())
}

// SetPropPtr updates a relationship's property-store pointer.
func (s *RelationshipStore) SetPropPtr(id graph.RelId, ptr uint64) error {
	rec, err := s.GetRelationship(id)
	if err != nil {
		return err
	}
	rec.PropPtr = ptr
	return s.PutRelationship(rec)
}

// DeleteRelationship tombstones id. Callers must unsplice it from both
// endpoints' adjacency chains first.
func (s *RelationshipStore) DeleteRelationship(id graph.RelId) error {
	return s.MarkDeleted(uint64(id))
}
