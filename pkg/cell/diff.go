package cell

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// RootPath names a change that replaced the whole value rather than a field
// inside it (for example when the cell holds a scalar).
const RootPath = "."

// Diff returns the paths whose values differ between before and after, in
// traversal order. Struct fields are rendered as `Field`, slice and array
// elements as `[i]` and map entries as `[key]`, joined into a single path such
// as `Items[2].Name` or `Labels["env"]`. An empty result means the values are
// deep-equal.
func Diff[T any](before, after T) []string {
	reporter := &pathReporter{}
	cmp.Equal(before, after, cmp.Exporter(exportAll), cmp.Reporter(reporter))
	return reporter.paths
}

func exportAll(reflect.Type) bool {
	return true
}

type pathReporter struct {
	steps cmp.Path
	paths []string
	seen  map[string]struct{}
}

func (r *pathReporter) PushStep(step cmp.PathStep) {
	r.steps = append(r.steps, step)
}

func (r *pathReporter) PopStep() {
	r.steps = r.steps[:len(r.steps)-1]
}

func (r *pathReporter) Report(result cmp.Result) {
	if result.Equal() {
		return
	}
	path := formatPath(r.steps)
	if r.seen == nil {
		r.seen = map[string]struct{}{}
	}
	if _, ok := r.seen[path]; ok {
		return
	}
	r.seen[path] = struct{}{}
	r.paths = append(r.paths, path)
}

func formatPath(steps cmp.Path) string {
	var b strings.Builder
	for _, step := range steps {
		switch s := step.(type) {
		case cmp.StructField:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Name())
		case cmp.SliceIndex:
			index := s.Key()
			if index < 0 {
				// element only exists on one side
				bx, ay := s.SplitKeys()
				index = bx
				if index < 0 {
					index = ay
				}
			}
			fmt.Fprintf(&b, "[%d]", index)
		case cmp.MapIndex:
			fmt.Fprintf(&b, "[%#v]", s.Key().Interface())
		}
	}
	if b.Len() == 0 {
		return RootPath
	}
	return b.String()
}
