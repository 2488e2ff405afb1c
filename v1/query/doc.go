// Package query provides the filter composer and the lazy result set used by
// models.
//
// # Filters
//
// Q wraps a filter document written with public attribute names:
//
//	adults := query.New(map[string]any{"age__gte": 18})
//	berlin := query.New(map[string]any{"address__city": "Berlin"})
//
//	q := adults.And(berlin)
//	// {"$and": [{"age__gte": 18}, {"address__city": "Berlin"}]}
//
// Combining under the connective a filter already uses appends to its list
// instead of nesting, and combining a filter with an identical one returns
// it unchanged:
//
//	a.And(b).And(c) // {"$and": [a, b, c]}
//	a.And(b).Or(c)  // {"$or": [{"$and": [a, b]}, c]}
//	a.And(a)        // a
//
// Names are translated to storage names by the model that executes the
// query, see fieldmap.Map.Resolve.
//
// # Result sets
//
// Set wraps a Cursor returned by storage. It counts, indexes, slices and
// iterates lazily, caching what it has fetched:
//
//	users, err := meta.Find(ctx, q)
//	users = users.Sort("-created").Limit(10)
//	n, err := users.Count(ctx)
//	first, err := users.At(ctx, 0)
//	for user, err := range users.Iter(ctx) {
//	    ...
//	}
package query
