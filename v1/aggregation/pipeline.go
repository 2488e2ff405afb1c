// Package aggregation builds aggregation framework pipelines written with a
// model's public attribute names.
//
//	p := aggregation.New().
//	    Match(query.New(map[string]any{"age__gte": 18})).
//	    Project([]string{"name", "age"}, nil).
//	    Sort("-age").
//	    Limit(10)
//
//	users, err := meta.Aggregate(ctx, p)
//
// Consecutive Project calls merge into a single $project stage. Stages are
// always emitted in the order $match, $project, $unwind, $sort, $skip,
// $limit, regardless of the order the builder methods were called in.
package aggregation

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/query"
)

// Pipeline accumulates aggregation stages. The zero value is an empty
// pipeline. Builder methods modify the receiver and return it for chaining.
type Pipeline struct {
	match   query.Q
	project map[string]int
	unwind  []string
	sort    []string
	skip    *int64
	limit   *int64
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Project includes and excludes fields from the output documents.
func (p *Pipeline) Project(include, exclude []string) *Pipeline {
	if p.project == nil {
		p.project = make(map[string]int)
	}
	for _, name := range include {
		p.project[name] = 1
	}
	for _, name := range exclude {
		p.project[name] = 0
	}
	return p
}

// Include is Project with only fields to include.
func (p *Pipeline) Include(names ...string) *Pipeline {
	return p.Project(names, nil)
}

// Exclude is Project with only fields to exclude.
func (p *Pipeline) Exclude(names ...string) *Pipeline {
	return p.Project(nil, names)
}

// Match filters the input documents. Repeated calls are combined with
// $and.
func (p *Pipeline) Match(q query.Q) *Pipeline {
	if p.match.IsZero() {
		p.match = q
	} else {
		p.match = p.match.And(q)
	}
	return p
}

// Unwind emits one document per element of the array field name.
func (p *Pipeline) Unwind(name string) *Pipeline {
	p.unwind = append(p.unwind, name)
	return p
}

// Sort orders the output by keys, descending where prefixed with "-".
func (p *Pipeline) Sort(keys ...string) *Pipeline {
	p.sort = append(p.sort, keys...)
	return p
}

// Skip drops the first n documents.
func (p *Pipeline) Skip(n int64) *Pipeline {
	p.skip = &n
	return p
}

// Limit passes at most n documents on.
func (p *Pipeline) Limit(n int64) *Pipeline {
	p.limit = &n
	return p
}

// Stages renders the pipeline with names translated through fields.
func (p *Pipeline) Stages(fields fieldmap.Map) []bson.D {
	var stages []bson.D

	if !p.match.IsZero() {
		filter := fields.Resolve(p.match.Filter(), fieldmap.WithOperators(), fieldmap.Flatten())
		stages = append(stages, bson.D{{Key: "$match", Value: filter}})
	}

	if len(p.project) > 0 {
		names := make([]string, 0, len(p.project))
		for name := range p.project {
			names = append(names, name)
		}
		slices.Sort(names)

		project := make(bson.D, 0, len(names))
		for _, name := range names {
			project = append(project, bson.E{Key: fields.Name(name), Value: p.project[name]})
		}
		stages = append(stages, bson.D{{Key: "$project", Value: project}})
	}

	for _, name := range p.unwind {
		stages = append(stages, bson.D{{Key: "$unwind", Value: "$" + fields.Name(name)}})
	}

	if len(p.sort) > 0 {
		sort := make(bson.D, 0, len(p.sort))
		for _, f := range query.ParseSort(fields, p.sort...) {
			sort = append(sort, bson.E{Key: f.Name, Value: f.Direction})
		}
		stages = append(stages, bson.D{{Key: "$sort", Value: sort}})
	}

	if p.skip != nil {
		stages = append(stages, bson.D{{Key: "$skip", Value: *p.skip}})
	}
	if p.limit != nil {
		stages = append(stages, bson.D{{Key: "$limit", Value: *p.limit}})
	}
	return stages
}
