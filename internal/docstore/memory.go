package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryClient keeps the whole tree in process. It backs local development
// and tests with the same semantics as the hosted store.
type MemoryClient struct {
	mu   sync.RWMutex
	root any
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

func (c *MemoryClient) Driver() Driver { return DriverMemory }

func (c *MemoryClient) Fetch(_ context.Context, path string) (Value, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return Value{}, err
	}

	c.mu.RLock()
	node, ok := nodeAt(c.root, splitPath(clean))
	var raw []byte
	if ok {
		raw, err = json.Marshal(node)
	}
	c.mu.RUnlock()

	if !ok {
		return Absent(), nil
	}
	if err != nil {
		return Value{}, fmt.Errorf("encode %s: %w", clean, err)
	}
	return Decode(raw)
}

func (c *MemoryClient) Put(_ context.Context, path string, value any) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}
	tree, err := toTree(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", clean, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = setAt(c.root, splitPath(clean), tree)
	return nil
}

func (c *MemoryClient) Patch(_ context.Context, path string, fields map[string]any) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}
	segs := splitPath(clean)

	c.mu.Lock()
	defer c.mu.Unlock()
	current, _ := nodeAt(c.root, segs)
	merged, err := mergeFields(current, fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", clean, err)
	}
	c.root = setAt(c.root, segs, merged)
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, path string) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = setAt(c.root, splitPath(clean), nil)
	return nil
}
