/*
Package index holds the three lookup structures the planner can choose
over a full scan: a label bitmap index, a per-(label, key) ordered
property index for equality and range predicates, and a pluggable
vector index for nearest-neighbor search.

None of these are a source of truth — every one of them can be rebuilt
from a full scan over recordstore, and pkg/engine's Open does exactly
that on every start, since none of them is persisted.
They exist purely so MATCH (n:Label) and MATCH (n:Label {key: $v}) don't
have to walk every node record.

# Label index

A LabelId maps to a roaring64.Bitmap of the NodeIds carrying that
label. Roaring's compressed-container representation keeps this cheap
even for labels applied to a large fraction of all nodes, and set
intersection (for multi-label MATCH patterns) is native to the bitmap
type rather than something this package has to hand-roll.

# Property index

General secondary indexing (arbitrary multi-key, arbitrary value
shapes) is explicitly out of scope; what the specification actually
needs is equality and range lookup on one (label, key) pair at a time,
for orderable scalar kinds (Integer, Float, String). A sorted slice of
(value, NodeId) pairs with binary search over it covers both access
patterns without pulling in a general-purpose index library for a need
this narrow.

# Vector index

Vector/KNN search is brute-force only: VectorIndex is a small interface
so a future HNSW or IVF implementation can slot in behind it, but the
only implementation here scans every stored vector and keeps the best
k by distance. This is proportionate to the specification's scope, which
calls out vector search as present but does not require sublinear
nearest-neighbor performance.
*/
package index
