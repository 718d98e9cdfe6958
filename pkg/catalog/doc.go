/*
Package catalog interns label, relationship-type and property-key names
to dense ids, tracks per-id live counters, and persists a constraint
registry (UNIQUE / EXISTS). It is the one piece of graphd's on-disk
state backed by bbolt rather than a raw mmap file: the catalog is small,
read far more often than written, and benefits from bbolt's B+tree
lookups and crash-safe single-file commits instead of a bespoke format.

# Architecture

	┌─────────────────────────── CATALOG ───────────────────────────┐
	│                                                                 │
	│  bucket "labels"          name      -> LabelId (binary u32)    │
	│  bucket "labels_rev"      LabelId   -> name                    │
	│  bucket "types"           name      -> TypeId                  │
	│  bucket "types_rev"       TypeId    -> name                    │
	│  bucket "keys"            name      -> KeyId                   │
	│  bucket "keys_rev"        KeyId     -> name                    │
	│  bucket "counters"        "next_label" | "next_type" | ...      │
	│  bucket "label_live"      LabelId   -> live node count (u64)   │
	│  bucket "type_live"       TypeId    -> live relationship count │
	│  bucket "constraints"     id        -> json(Constraint)        │
	│                                                                 │
	└─────────────────────────────────────────────────────────────────┘

Every interning call (Label/Type/Key) is idempotent: calling it again
with a name already known returns the existing id rather than minting a
new one. Ids are never reused even after every entity bearing a label is
deleted, so a stale LabelId embedded in an old WAL record still resolves
to the same name it did when it was written.
*/
package catalog
