package graph

// Row is one record of a query result: a map from the variable names
// bound in a Cypher RETURN/WITH clause to their values. The executor
// produces a stream of Rows; planner operators consume and re-emit them
// with additional or filtered bindings.
type Row struct {
	Values map[string]PropertyValue
}

// NewRow returns an empty Row ready for binding.
func NewRow() Row {
	return Row{Values: make(map[string]PropertyValue)}
}

// Get returns the bound value for variable, or Null with ok=false if the
// variable isn't bound in this row (distinct from a variable bound to an
// explicit Null value).
func (r Row) Get(variable string) (PropertyValue, bool) {
	v, ok := r.Values[variable]
	return v, ok
}

// Set binds variable to value, returning the same Row for chaining.
func (r Row) Set(variable string, value PropertyValue) Row {
	r.Values[variable] = value
	return r
}

// Clone returns a shallow copy of r whose Values map can be mutated
// independently; PropertyValue itself is treated as immutable once built.
func (r Row) Clone() Row {
	out := make(map[string]PropertyValue, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return Row{Values: out}
}

// Merge returns a new Row containing r's bindings overlaid with other's,
// used by Expand/Join operators to combine a left row with bindings
// produced for the right side.
func (r Row) Merge(other Row) Row {
	out := r.Clone()
	for k, v := range other.Values {
		out.Values[k] = v
	}
	return out
}
