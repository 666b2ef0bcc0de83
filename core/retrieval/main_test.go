package retrieval

import (
	"context"
	"testing"

	"github.com/siherrmann/kgraph/core/pipeline"
	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/require"
)

var farmVectors = map[string][]float32{
	"Mr. Jones":   {1, 0, 0, 0},
	"Jones":       {0.99, 0.1, 0, 0},
	"Manor Farm":  {0, 1, 0, 0},
	"Animal Farm": {0, 0.9, 0.3, 0},
	"Old Major":   {0, 0, 1, 0},
	"Boxer":       {0, 0, 0, 1},
	"Rebellion":   {0.5, 0.5, 0.5, 0.5},
}

func mention(chunk, typ, name string, attributes map[string]interface{}) model.EntityMention {
	return model.EntityMention{
		ChunkID:    model.ChunkID(chunk),
		Type:       typ,
		Name:       name,
		Attributes: model.NewAttributes(attributes),
	}
}

func farmSnapshot(t *testing.T) *pipeline.Result {
	entities := []model.EntityMention{
		mention("1", "Person", "Mr. Jones", map[string]interface{}{"role": "protagonist", "description": "owner of Manor Farm"}),
		mention("1", "Location", "Manor Farm", map[string]interface{}{"description": "the farm of Mr. Jones"}),
		mention("1", "Location", "Animal Farm", map[string]interface{}{"description": "the farm after the rebellion"}),
		mention("2", "Person", "Jones", map[string]interface{}{"role": "villain", "drink": "beer"}),
		mention("2", "Person", "Old Major", map[string]interface{}{"description": "a prize boar"}),
		mention("3", "Person", "Boxer", map[string]interface{}{"description": "a cart-horse", "gender": "male"}),
		mention("3", "Concept", "Rebellion", map[string]interface{}{"description": "uprising on the farm"}),
	}
	relations := []model.RelationMention{
		{ChunkID: "1", Head: "Mr. Jones", Relation: "possesses", Tail: model.SingleTail("Manor Farm")},
		{ChunkID: "2", Head: "Jones", Relation: "knows", Tail: model.SingleTail("Old Major")},
		{ChunkID: "3", Head: "Boxer", Relation: "locatedIn", Tail: model.ListTail("Animal Farm", "Manor Farm")},
		{ChunkID: "3", Head: "Old Major", Relation: "participatesIn", Tail: model.SingleTail("Rebellion")},
	}

	embed := func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = farmVectors[text]
		}
		return out, nil
	}

	p, err := pipeline.NewPipeline(embed, model.DefaultBuildConfig(), nil, nil)
	require.NoError(t, err, "failed to create pipeline")
	result, err := p.Run(context.Background(), entities, relations)
	require.NoError(t, err, "failed to build snapshot")
	return result
}

func newTestEngine(t *testing.T) *Engine {
	return NewEngine(farmSnapshot(t), nil)
}

func ptr(s string) *string {
	return &s
}

func mentionNames(mentions []model.CanonicalEntityMention) []string {
	names := make([]string, 0, len(mentions))
	for _, m := range mentions {
		names = append(names, m.Name)
	}
	return names
}
