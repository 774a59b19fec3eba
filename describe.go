package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-store/internal/hydrate"
)

// FieldDescriptor describes a state path and the inferred type.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// ActionDescriptor describes a wrapped action as callers see it.
type ActionDescriptor struct {
	Name   string   `json:"name"`
	Arity  int      `json:"arity"`
	Params []string `json:"params,omitempty"`
}

// SliceDescriptor summarises one composed slice.
type SliceDescriptor struct {
	Key       string             `json:"key"`
	Name      string             `json:"name"`
	StateType string             `json:"state_type"`
	Fields    []FieldDescriptor  `json:"fields"`
	Actions   []ActionDescriptor `json:"actions"`
}

// Describe lists every slice sorted by key. Field paths follow the JSON
// representation of the current state; state that does not encode to JSON
// yields no fields.
func (s *Store) Describe() []SliceDescriptor {
	keys := s.Keys()
	out := make([]SliceDescriptor, 0, len(keys))
	for _, key := range keys {
		entry := s.entries[key]
		out = append(out, entry.describe())
	}
	return out
}

func (e *Entry) describe() SliceDescriptor {
	desc := SliceDescriptor{
		Key:       e.key,
		Name:      e.name,
		StateType: e.stateType.String(),
		Fields:    []FieldDescriptor{},
		Actions:   make([]ActionDescriptor, 0, len(e.ops)),
	}
	if state, err := hydrate.Encode(e.State()); err == nil {
		if fields := deriveFieldDescriptors(state, ""); fields != nil {
			desc.Fields = fields
		}
	}
	for _, op := range e.ops {
		desc.Actions = append(desc.Actions, op)
	}
	sort.Slice(desc.Actions, func(i, j int) bool {
		return desc.Actions[i].Name < desc.Actions[j].Name
	})
	return desc
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Type: "nil"}}
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []FieldDescriptor{{Path: prefix, Type: "map[string]any"}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, deriveFieldDescriptors(typed[key], joinPath(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix, Type: "[]" + elementType}}
	default:
		return []FieldDescriptor{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
