/*
Package graph defines the data model shared by every layer of graphd: the
catalog, the record and adjacency stores, the indexes, the planner and the
executor all exchange values of these types rather than each layer
inventing its own.

# Architecture

	┌──────────────────────── DATA MODEL ───────────────────────┐
	│                                                             │
	│   NodeId / RelId       dense, monotonically assigned u64   │
	│   LabelId / TypeId /   dense, monotonically assigned u32   │
	│   KeyId                (interned by pkg/catalog)            │
	│                                                             │
	│   PropertyValue        tagged union: Null, Bool, I64, F64,  │
	│                        String, Bytes, List, Map, Point,     │
	│                        Vector                                │
	│                                                             │
	│   Row                  variable → PropertyValue | Node |    │
	│                        Relationship | Path, produced by the │
	│                        executor and consumed by the caller  │
	└─────────────────────────────────────────────────────────────┘

Nothing in this package touches disk; it is pure value types plus the
error taxonomy from the specification's error-handling design. Storage
layout lives in pkg/recordstore, pkg/propstore and pkg/adjacency.
*/
package graph
