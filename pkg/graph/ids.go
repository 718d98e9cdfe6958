package graph

// NodeId identifies a node record. Ids are dense and monotonically
// assigned; a deleted node tombstones its slot rather than recycling it.
type NodeId uint64

// RelId identifies a relationship record.
type RelId uint64

// LabelId identifies an interned label name.
type LabelId uint32

// TypeId identifies an interned relationship type name.
type TypeId uint32

// KeyId identifies an interned property key name.
type KeyId uint32

// InvalidNodeId is never assigned to a live node; it marks an absent
// reference (e.g. a node record's first_rel_ptr before any relationship
// has been attached would be expressed in terms of RelId instead, but
// NodeId fields that can be empty use this sentinel).
const InvalidNodeId NodeId = 0

// InvalidRelId marks the end of an adjacency/relationship chain.
const InvalidRelId RelId = 0

// NoPropPtr is the property-store pointer value reserved for "this
// entity carries no properties".
const NoPropPtr uint64 = 0
