package docstore

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Helpers over decoded JSON trees (map[string]any, []any, scalars). Shared by
// the memory driver and the flat key-value drivers.

func toTree(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return parseTree(raw)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return parseTree(raw)
}

func parseTree(raw []byte) (any, error) {
	if isNull(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return normalize(out), nil
}

// normalize drops null map entries and empty containers, the way the
// store never keeps an empty node.
func normalize(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if c := normalize(v); c == nil {
				delete(n, k)
			} else {
				n[k] = c
			}
		}
		if len(n) == 0 {
			return nil
		}
		return n
	case []any:
		empty := true
		for i, v := range n {
			n[i] = normalize(v)
			if n[i] != nil {
				empty = false
			}
		}
		if empty {
			return nil
		}
		return n
	default:
		return node
	}
}

func child(node any, key string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		c, ok := n[key]
		return c, ok && c != nil
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n) {
			return nil, false
		}
		return n[i], n[i] != nil
	default:
		return nil, false
	}
}

func nodeAt(root any, segs []string) (any, bool) {
	node := root
	for _, seg := range segs {
		var ok bool
		if node, ok = child(node, seg); !ok {
			return nil, false
		}
	}
	return node, node != nil
}

// asMap views node as a map. Lists become maps keyed by index, anything
// else becomes an empty map.
func asMap(node any) map[string]any {
	switch n := node.(type) {
	case map[string]any:
		return n
	case []any:
		m := make(map[string]any, len(n))
		for i, c := range n {
			if c != nil {
				m[strconv.Itoa(i)] = c
			}
		}
		return m
	default:
		return map[string]any{}
	}
}

// setAt returns root with the node at segs replaced by val. A nil val
// deletes the node and prunes parents left empty.
func setAt(root any, segs []string, val any) any {
	if len(segs) == 0 {
		return normalize(val)
	}
	m := asMap(root)
	c, _ := child(m, segs[0])
	if next := setAt(c, segs[1:], val); next == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = next
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// mergeFields applies a patch to node: nil fields are removed, others replace
// the existing top-level value.
func mergeFields(node any, fields map[string]any) (any, error) {
	m := asMap(node)
	for k, v := range fields {
		tree, err := toTree(v)
		if err != nil {
			return nil, err
		}
		if tree == nil {
			delete(m, k)
			continue
		}
		m[k] = tree
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
