package querycache

import (
	"context"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

// Mutation operation names.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Patch is an optimistic change to one cached entry. Apply returns the
// patched value and whether it changed anything.
type Patch struct {
	Key   Key
	Apply func(current any) (next any, changed bool)
}

// Mutation describes a write and its effect on the cache.
type Mutation struct {
	Resource string
	Op       string
	// Patches are applied before the request and rolled back if it fails.
	Patches []Patch
	// Invalidate and InvalidateResources are marked stale after the
	// request succeeds.
	Invalidate          []Key
	InvalidateResources []string
}

type saved struct {
	key    Key
	ptr    *entry
	before entry
}

// Mutate applies m's patches, runs fn, and on success marks m's keys stale.
// On failure every patched entry is restored exactly as it was and the
// error is returned as a *sdk.MutationError. Stale marking happens only
// after fn has returned successfully.
func Mutate[R any](ctx context.Context, c *Cache, m Mutation, fn func(context.Context) (R, error)) (R, error) {
	c.mu.Lock()
	patched := make([]saved, 0, len(m.Patches))
	for _, p := range m.Patches {
		e, ok := c.lru.Peek(p.Key)
		if !ok {
			continue
		}
		next, changed := p.Apply(e.value)
		if !changed {
			continue
		}
		patched = append(patched, saved{key: p.Key, ptr: e, before: *e})
		e.value = next
		e.patched = true
	}
	c.mu.Unlock()

	result, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		for i := len(patched) - 1; i >= 0; i-- {
			s := patched[i]
			// a fetch that completed meanwhile replaced the entry; keep it
			if current, ok := c.lru.Peek(s.key); ok && current == s.ptr {
				*current = s.before
			}
		}
		c.logger.Debug().
			Str("resource", m.Resource).
			Str("op", m.Op).
			Int("rolled_back", len(patched)).
			Err(err).
			Msg("mutation failed")
		var zero R
		return zero, &sdk.MutationError{Resource: m.Resource, Op: m.Op, Err: err}
	}

	c.invalidateLocked(m.Invalidate, m.InvalidateResources)
	return result, nil
}

// RemoveWhere removes the elements of a cached []T that match.
func RemoveWhere[T any](key Key, match func(T) bool) Patch {
	return Patch{Key: key, Apply: func(current any) (any, bool) {
		items, ok := current.([]T)
		if !ok {
			return current, false
		}
		out := make([]T, 0, len(items))
		for _, item := range items {
			if !match(item) {
				out = append(out, item)
			}
		}
		return out, len(out) != len(items)
	}}
}

// UpdateWhere replaces the elements of a cached []T that match with
// update's result.
func UpdateWhere[T any](key Key, match func(T) bool, update func(T) T) Patch {
	return Patch{Key: key, Apply: func(current any) (any, bool) {
		items, ok := current.([]T)
		if !ok {
			return current, false
		}
		out := make([]T, len(items))
		changed := false
		for i, item := range items {
			if match(item) {
				item = update(item)
				changed = true
			}
			out[i] = item
		}
		return out, changed
	}}
}

// Replace rewrites a cached entity of type T.
func Replace[T any](key Key, update func(T) T) Patch {
	return Patch{Key: key, Apply: func(current any) (any, bool) {
		v, ok := current.(T)
		if !ok {
			return current, false
		}
		return update(v), true
	}}
}
