package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Kind is the shape of a node read from the document store.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindMap
	KindList
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Value is a decoded node. The store may hold a collection either as a map
// keyed by record id or as a list that can contain null holes; Value hides
// that difference behind Records.
type Value struct {
	kind  Kind
	raw   json.RawMessage
	keys  []string
	items map[string]json.RawMessage
	list  []json.RawMessage
}

// Entry is one child of a map or list node.
type Entry struct {
	Key string
	Raw json.RawMessage
}

// Absent is the value of a path that holds nothing.
func Absent() Value { return Value{kind: KindAbsent} }

// Decode classifies raw JSON. Empty input and JSON null are absent.
func Decode(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Absent(), nil
	}

	switch trimmed[0] {
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrShape, err)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return Value{kind: KindMap, raw: json.RawMessage(trimmed), keys: keys, items: m}, nil
	case '[':
		var l []json.RawMessage
		if err := json.Unmarshal(trimmed, &l); err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrShape, err)
		}
		return Value{kind: KindList, raw: json.RawMessage(trimmed), list: l}, nil
	default:
		if !json.Valid(trimmed) {
			return Value{}, fmt.Errorf("%w: invalid JSON scalar", ErrShape)
		}
		return Value{kind: KindScalar, raw: json.RawMessage(trimmed)}, nil
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) Raw() json.RawMessage { return v.raw }

// Size is the encoded length of the node in bytes.
func (v Value) Size() int { return len(v.raw) }

// Into unmarshals the node into dst. Absent leaves dst untouched.
func (v Value) Into(dst any) error {
	if v.kind == KindAbsent {
		return nil
	}
	return json.Unmarshal(v.raw, dst)
}

// Records flattens a map or list node into its non-null children. Map
// children come back ordered by key, list children by index with holes
// dropped. A scalar node is a shape error.
func (v Value) Records() ([]Entry, error) {
	switch v.kind {
	case KindAbsent:
		return nil, nil
	case KindMap:
		out := make([]Entry, 0, len(v.keys))
		for _, k := range v.keys {
			raw := v.items[k]
			if isNull(raw) {
				continue
			}
			out = append(out, Entry{Key: k, Raw: raw})
		}
		return out, nil
	case KindList:
		out := make([]Entry, 0, len(v.list))
		for i, raw := range v.list {
			if isNull(raw) {
				continue
			}
			out = append(out, Entry{Key: strconv.Itoa(i), Raw: raw})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected map or list, got %s", ErrShape, v.kind)
	}
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
