package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAttributes(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("First match with basic info", func(t *testing.T) {
		out := engine.ExtractAttributes([]string{"Jones", "Snowball"}, EntityFilter{}, nil, true)

		require.Contains(t, out, "Jones")
		assert.NotContains(t, out, "Snowball", "Expected targets without match to be left out")
		attributes := out["Jones"]
		assert.Equal(t, "Mr. Jones", attributes["name"])
		assert.Equal(t, "Person", attributes["type"])
		assert.Equal(t, "1", attributes["chunk_id"])
		assert.Equal(t, "Mr. Jones", attributes["canonical_name"])
		assert.Equal(t, "protagonist", attributes["role"])
		assert.Equal(t, "owner of Manor Farm", attributes["description"])
	})

	t.Run("Selected fields without basic info", func(t *testing.T) {
		out := engine.ExtractAttributes([]string{"jones"}, EntityFilter{ChunkID: ptr("2")}, []string{"role", "drink"}, false)
		assert.Equal(t, map[string]interface{}{"role": "villain", "drink": "beer"}, out["jones"])
	})

	t.Run("Type filter", func(t *testing.T) {
		out := engine.ExtractAttributes([]string{"Farm"}, EntityFilter{Type: ptr("Person")}, nil, false)
		assert.Empty(t, out)
	})
}

func TestAttributesByType(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("All mentions of a type", func(t *testing.T) {
		out := engine.AttributesByType("Location", []string{"description"}, 0)
		require.Len(t, out, 2)
		assert.Equal(t, "the farm of Mr. Jones", out["Manor Farm"]["description"])
		assert.Equal(t, "Location", out["Animal Farm"]["type"], "Expected basic info to be included")
	})

	t.Run("Limit", func(t *testing.T) {
		out := engine.AttributesByType("Person", nil, 2)
		assert.Len(t, out, 2)
		assert.Contains(t, out, "Mr. Jones")
		assert.Contains(t, out, "Jones")
	})

	t.Run("Unknown type", func(t *testing.T) {
		assert.Empty(t, engine.AttributesByType("Vehicle", nil, 0))
	})
}

func TestSummaryByType(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("Count mentions per type", func(t *testing.T) {
		summary := engine.SummaryByType()
		assert.Equal(t, map[string]int{"Person": 4, "Location": 2, "Concept": 1}, summary)
		assert.Equal(t, []string{"Person", "Location", "Concept"}, SortedTypes(summary))
	})
}
