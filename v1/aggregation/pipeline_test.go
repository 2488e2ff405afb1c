package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Aleph-Alpha/odm/v1/fieldmap"
	"github.com/Aleph-Alpha/odm/v1/query"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Pipeline)
		want  bson.D
	}{
		{
			name:  "include",
			build: func(p *Pipeline) { p.Project([]string{"a", "b"}, nil) },
			want:  bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 1}},
		},
		{
			name:  "exclude",
			build: func(p *Pipeline) { p.Project(nil, []string{"a"}) },
			want:  bson.D{{Key: "a", Value: 0}},
		},
		{
			name:  "include and exclude",
			build: func(p *Pipeline) { p.Project([]string{"a"}, []string{"b"}) },
			want:  bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 0}},
		},
		{
			name: "consecutive calls merge",
			build: func(p *Pipeline) {
				p.Include("a").Include("b").Exclude("c")
			},
			want: bson.D{{Key: "a", Value: 1}, {Key: "b", Value: 1}, {Key: "c", Value: 0}},
		},
		{
			name: "later call wins",
			build: func(p *Pipeline) {
				p.Include("a").Exclude("a")
			},
			want: bson.D{{Key: "a", Value: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			tt.build(p)
			assert.Equal(t, []bson.D{{{Key: "$project", Value: tt.want}}}, p.Stages(nil))
		})
	}
}

func TestStagesOrderAndMapping(t *testing.T) {
	fields := fieldmap.Map{"name": "n", "tags": "t", "age": "a"}

	p := New().
		Limit(5).
		Sort("-age").
		Unwind("tags").
		Skip(2).
		Include("name").
		Match(query.New(map[string]any{"age__gte": 18}))

	assert.Equal(t, []bson.D{
		{{Key: "$match", Value: map[string]any{"a": map[string]any{"$gte": 18}}}},
		{{Key: "$project", Value: bson.D{{Key: "n", Value: 1}}}},
		{{Key: "$unwind", Value: "$t"}},
		{{Key: "$sort", Value: bson.D{{Key: "a", Value: query.Descending}}}},
		{{Key: "$skip", Value: int64(2)}},
		{{Key: "$limit", Value: int64(5)}},
	}, p.Stages(fields))
}

func TestMatchCombines(t *testing.T) {
	p := New().
		Match(query.New(map[string]any{"a": 1})).
		Match(query.New(map[string]any{"b": 2}))

	assert.Equal(t, []bson.D{
		{{Key: "$match", Value: map[string]any{
			"$and": []any{map[string]any{"a": 1}, map[string]any{"b": 2}},
		}}},
	}, p.Stages(nil))
}

func TestEmptyPipeline(t *testing.T) {
	assert.Empty(t, New().Stages(nil))
	assert.Empty(t, (&Pipeline{}).Stages(fieldmap.Map{}))
}
