package retrieval

import (
	"testing"

	"github.com/siherrmann/kgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultNames(results []*model.RetrievalResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names
}

func TestKeywordStrategy(t *testing.T) {
	engine := newTestEngine(t)
	strategy := NewKeywordStrategy(engine)

	t.Run("Canonical entities of matches", func(t *testing.T) {
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"farm"}, Type: ptr("Location")}, model.DefaultQueryConfig())
		assert.Equal(t, []string{"Animal Farm", "Manor Farm"}, resultNames(results))
		assert.Equal(t, "keyword", results[0].RetrievalMethod)
		require.NotNil(t, results[0].Entity)
		assert.Equal(t, "Location", results[0].Entity.Type)
	})

	t.Run("Surface forms add up", func(t *testing.T) {
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"jones"}, Fields: []string{"name"}}, model.DefaultQueryConfig())
		require.Len(t, results, 1)
		assert.Equal(t, "Mr. Jones", results[0].Name)
		assert.Equal(t, 2.0, results[0].Score)
	})
}

func TestMultiHopStrategy(t *testing.T) {
	engine := newTestEngine(t)
	strategy := NewMultiHopStrategy(engine)

	t.Run("Expand matches through the graph", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.MaxHops = 1
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"boar"}}, config)

		assert.Equal(t, []string{"Old Major", "Mr. Jones", "Rebellion"}, resultNames(results))
		assert.Equal(t, 1.0, results[0].Score)
		assert.Equal(t, 0.5, results[1].Score)
		assert.Equal(t, 1, results[1].GraphDistance)
		assert.Equal(t, []string{"Old Major", "Mr. Jones"}, results[1].Path)
		assert.Equal(t, "multi_hop", results[1].RetrievalMethod)
	})

	t.Run("Limit", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.MaxHops = 1
		config.Limit = 2
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"boar"}}, config)
		assert.Len(t, results, 2)
	})
}

func TestEntityCentricStrategy(t *testing.T) {
	engine := newTestEngine(t)
	strategy := NewEntityCentricStrategy(engine)

	t.Run("Fan out from a surface form", func(t *testing.T) {
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"Jones"}}, model.DefaultQueryConfig())

		require.NotEmpty(t, results)
		assert.Equal(t, "Mr. Jones", results[0].Name)
		assert.Equal(t, "entity_centric", results[0].RetrievalMethod)
		assert.ElementsMatch(t, []string{"Mr. Jones", "Manor Farm", "Old Major", "Boxer", "Rebellion"}, resultNames(results))
	})

	t.Run("Type restriction applies to the fan out", func(t *testing.T) {
		results := strategy.Retrieve(SearchQuery{Keywords: []string{"Jones"}, Type: ptr("Location")}, model.DefaultQueryConfig())
		assert.Equal(t, []string{"Mr. Jones", "Manor Farm"}, resultNames(results))
	})

	t.Run("Unknown entity", func(t *testing.T) {
		assert.Empty(t, strategy.Retrieve(SearchQuery{Keywords: []string{"Snowball"}}, model.DefaultQueryConfig()))
	})
}
