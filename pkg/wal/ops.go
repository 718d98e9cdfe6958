package wal

import (
	"encoding/json"

	"github.com/cuemby/graphd/pkg/graph"
)

// Op names a logical mutation a Command replays. These mirror the
// write-transaction methods pkg/txn exposes to the executor; pkg/txn's
// Redo applies them the same way the original write did, against the
// same stores.
type Op string

const (
	OpCreateNode         Op = "create_node"
	OpDeleteNode         Op = "delete_node"
	OpSetNodeLabels      Op = "set_node_labels"
	OpSetNodeProps       Op = "set_node_props"
	OpCreateRelationship Op = "create_relationship"
	OpDeleteRelationship Op = "delete_relationship"
	OpSetRelProps        Op = "set_rel_props"
)

// Command is the JSON payload carried by every RecordCommand. It
// carries no transaction id: ReplayCommitted ties it to a transaction
// by its position between a Begin record and the following Commit or
// Abort, which decides whether it is redone at all.
type Command struct {
	Op   Op              `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Marshal encodes op with data into a Command payload ready for
// WAL.WriteCommand.
func Marshal(op Op, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, graph.Wrap(graph.ErrWal, err, "marshal wal command data for op %s", op)
	}
	cmd := Command{Op: op, Data: raw}
	buf, err := json.Marshal(cmd)
	if err != nil {
		return nil, graph.Wrap(graph.ErrWal, err, "marshal wal command for op %s", op)
	}
	return buf, nil
}

// CreateNodeData is OpCreateNode's payload: the node's final id (the
// one recordstore.Allocate handed the original write), its label set
// and materialized properties.
type CreateNodeData struct {
	NodeID graph.NodeId                    `json:"node_id"`
	Labels []graph.LabelId                 `json:"labels"`
	Props  map[string]graph.PropertyValue  `json:"props,omitempty"`
}

// DeleteNodeData is OpDeleteNode's payload.
type DeleteNodeData struct {
	NodeID graph.NodeId `json:"node_id"`
}

// SetNodeLabelsData is OpSetNodeLabels's payload.
type SetNodeLabelsData struct {
	NodeID graph.NodeId    `json:"node_id"`
	Labels []graph.LabelId `json:"labels"`
}

// SetNodePropsData is OpSetNodeProps's payload. Props replaces the
// node's entire property map, matching how the executor's SET clause
// materializes a new map before handing it to the write transaction.
type SetNodePropsData struct {
	NodeID graph.NodeId                   `json:"node_id"`
	Props  map[string]graph.PropertyValue `json:"props"`
}

// CreateRelationshipData is OpCreateRelationship's payload.
type CreateRelationshipData struct {
	RelID graph.RelId                    `json:"rel_id"`
	Type  graph.TypeId                   `json:"type"`
	Start graph.NodeId                   `json:"start"`
	End   graph.NodeId                   `json:"end"`
	Props map[string]graph.PropertyValue `json:"props,omitempty"`
}

// DeleteRelationshipData is OpDeleteRelationship's payload.
type DeleteRelationshipData struct {
	RelID graph.RelId `json:"rel_id"`
}

// SetRelPropsData is OpSetRelProps's payload.
type SetRelPropsData struct {
	RelID graph.RelId                    `json:"rel_id"`
	Props map[string]graph.PropertyValue `json:"props"`
}
