package orm

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// eagerLoad resolves every registered relation for parents with one query
// per relation (and per nesting level), never one per row.
func (q *Query) eagerLoad(ctx context.Context, parents Entities) error {
	if len(q.withs) == 0 {
		return nil
	}
	names, nested := groupPaths(q.withs)
	for _, name := range names {
		r, ok := q.m.desc.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, q.m.desc.name, name)
		}
		if err := q.m.loadRelation(ctx, r, parents, nested[name]); err != nil {
			return err
		}
	}
	return nil
}

// groupPaths splits dotted paths by their first segment, keeping the order
// in which first segments appear.
func groupPaths(paths []string) ([]string, map[string][]string) {
	var names []string
	nested := make(map[string][]string)
	for _, path := range paths {
		head, rest, _ := strings.Cut(path, ".")
		if _, seen := nested[head]; !seen {
			names = append(names, head)
			nested[head] = nil
		}
		if rest != "" {
			nested[head] = append(nested[head], rest)
		}
	}
	return names, nested
}

func (m *Model) loadRelation(ctx context.Context, r *Relation, parents Entities, nested []string) error {
	for _, p := range parents {
		p.attrs[r.name] = Entities{}
	}

	ownerKey, relatedKey := r.ownerKey(), r.relatedKey()
	var keys []any
	seen := make(map[string]bool, len(parents))
	for _, p := range parents {
		v := p.attrs[ownerKey]
		k, ok := keyOf(v)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, v)
	}
	if len(keys) == 0 {
		return nil
	}

	children, err := m.relatedModel(r).Query().WhereIn(relatedKey, keys...).With(nested...).Get(ctx)
	if err != nil {
		return fmt.Errorf("orm: eager load %s.%s: %w", m.desc.name, r.name, err)
	}

	grouped := make(map[string]Entities, len(keys))
	for _, c := range children {
		if k, ok := keyOf(c.attrs[relatedKey]); ok {
			grouped[k] = append(grouped[k], c)
		}
	}
	for _, p := range parents {
		k, ok := keyOf(p.attrs[ownerKey])
		if !ok {
			continue
		}
		if g, found := grouped[k]; found {
			p.attrs[r.name] = slices.Clone(g)
		}
	}
	return nil
}
