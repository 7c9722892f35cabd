package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// The Redis and Postgres drivers keep the tree flat: each written path is
// one JSON document keyed by its path. A read returns the document at the
// path, a subtree of a document stored at an ancestor, or the assembly of
// documents stored below it. Writes keep at most one document on any
// root-to-leaf chain.

type flatReader interface {
	// documents returns the stored documents among paths, keyed by path.
	documents(ctx context.Context, paths []string) (map[string]json.RawMessage, error)
	// descendants returns every document stored strictly below path.
	descendants(ctx context.Context, path string) (map[string]json.RawMessage, error)
}

// flatPlan is the set of key writes one logical operation needs. Deletes
// run before sets.
type flatPlan struct {
	del []string
	set map[string]json.RawMessage
}

func (p flatPlan) empty() bool { return len(p.del) == 0 && len(p.set) == 0 }

// chain lists the ancestors of path, shortest first, followed by path.
func chain(path string) []string {
	segs := splitPath(path)
	out := make([]string, len(segs))
	for i := range segs {
		out[i] = strings.Join(segs[:i+1], "/")
	}
	return out
}

func flatRead(ctx context.Context, r flatReader, path string) (any, error) {
	segs := splitPath(path)
	paths := chain(path)
	docs, err := r.documents(ctx, paths)
	if err != nil {
		return nil, err
	}
	for i, p := range paths {
		raw, ok := docs[p]
		if !ok {
			continue
		}
		tree, err := parseTree(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrShape, p, err)
		}
		node, _ := nodeAt(tree, segs[i+1:])
		return node, nil
	}

	below, err := r.descendants(ctx, path)
	if err != nil {
		return nil, err
	}
	var tree any
	prefix := path + "/"
	for full, raw := range below {
		node, err := parseTree(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrShape, full, err)
		}
		tree = setAt(tree, splitPath(strings.TrimPrefix(full, prefix)), node)
	}
	return tree, nil
}

// planWrite replaces the node at path with node; nil deletes it.
func planWrite(ctx context.Context, r flatReader, path string, node any) (flatPlan, error) {
	segs := splitPath(path)
	paths := chain(path)
	ancestors := paths[:len(paths)-1]
	plan := flatPlan{set: map[string]json.RawMessage{}}

	docs, err := r.documents(ctx, ancestors)
	if err != nil {
		return plan, err
	}
	for i, anc := range ancestors {
		raw, ok := docs[anc]
		if !ok {
			continue
		}
		tree, err := parseTree(raw)
		if err != nil {
			return plan, fmt.Errorf("%w: document %s: %v", ErrShape, anc, err)
		}
		tree = setAt(tree, segs[i+1:], node)
		if tree == nil {
			plan.del = append(plan.del, anc)
			return plan, nil
		}
		encoded, err := json.Marshal(tree)
		if err != nil {
			return plan, err
		}
		plan.set[anc] = encoded
		return plan, nil
	}

	below, err := r.descendants(ctx, path)
	if err != nil {
		return plan, err
	}
	for full := range below {
		plan.del = append(plan.del, full)
	}
	plan.del = append(plan.del, path)

	if node = normalize(node); node != nil {
		encoded, err := json.Marshal(node)
		if err != nil {
			return plan, err
		}
		plan.set[path] = encoded
	}
	return plan, nil
}

func planPatch(ctx context.Context, r flatReader, path string, fields map[string]any) (flatPlan, error) {
	current, err := flatRead(ctx, r, path)
	if err != nil {
		return flatPlan{}, err
	}
	merged, err := mergeFields(current, fields)
	if err != nil {
		return flatPlan{}, err
	}
	return planWrite(ctx, r, path, merged)
}

func encodeTree(node any) (Value, error) {
	if node == nil {
		return Absent(), nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return Value{}, err
	}
	return Decode(raw)
}
