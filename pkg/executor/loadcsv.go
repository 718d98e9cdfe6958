package executor

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cuemby/graphd/pkg/graph"
	"github.com/cuemby/graphd/pkg/planner"
)

// buildLoadCsv streams rows from a local file or http(s) URL, binding
// op.Variable to each record (a List of strings, or a Map keyed by the
// header row when op.WithHeaders).
func buildLoadCsv(c *evalCtx, op planner.LoadCsv, upstream Iterator) Iterator {
	return newFlatMap(upstream, func(row graph.Row) (Iterator, error) {
		urlVal, err := c.eval(op.URL, row)
		if err != nil {
			return nil, err
		}
		if urlVal.Kind != graph.KindString {
			return nil, graph.TypeMismatch("String", urlVal.TypeName())
		}
		records, err := readCsv(urlVal.Str)
		if err != nil {
			return nil, graph.Wrap(graph.ErrCypherExecution, err, "LOAD CSV from %q", urlVal.Str)
		}

		var header []string
		if op.WithHeaders && len(records) > 0 {
			header = records[0]
			records = records[1:]
		}

		out := make([]graph.Row, 0, len(records))
		for _, rec := range records {
			var bound graph.PropertyValue
			if op.WithHeaders {
				m := make(map[string]graph.PropertyValue, len(header))
				for i, h := range header {
					if i < len(rec) {
						m[h] = graph.Str(rec[i])
					} else {
						m[h] = graph.Null()
					}
				}
				bound = graph.Map(m)
			} else {
				vals := make([]graph.PropertyValue, len(rec))
				for i, f := range rec {
					vals[i] = graph.Str(f)
				}
				bound = graph.List(vals)
			}
			out = append(out, row.Clone().Set(op.Variable, bound))
		}
		return newSliceIterator(out), nil
	})
}

func readCsv(url string) ([][]string, error) {
	var r io.ReadCloser
	switch {
	case strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://"):
		resp, err := http.Get(url)
		if err != nil {
			return nil, err
		}
		r = resp.Body
	case strings.HasPrefix(url, "file://"):
		f, err := os.Open(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return nil, err
		}
		r = f
	default:
		f, err := os.Open(url)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()
	return csv.NewReader(r).ReadAll()
}
