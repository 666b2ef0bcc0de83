package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	t.Run("Known string keys land in their field", func(t *testing.T) {
		a := NewAttributes(map[string]interface{}{"role": "farmer", "gender": "male"})
		require.NotNil(t, a.Role)
		assert.Equal(t, "farmer", *a.Role)
		require.NotNil(t, a.Gender)
		assert.Equal(t, "male", *a.Gender)
		assert.Empty(t, a.Extra)
	})

	t.Run("Unknown keys and non string values go to Extra", func(t *testing.T) {
		a := NewAttributes(map[string]interface{}{"age": 12.0, "name": []interface{}{"Boxer"}})
		assert.Nil(t, a.Name, "Expected a list name to stay out of the field")
		assert.Equal(t, 12.0, a.Extra["age"])
		assert.Equal(t, []interface{}{"Boxer"}, a.Extra["name"])
	})

	t.Run("Set replaces and nil removes", func(t *testing.T) {
		a := NewAttributes(map[string]interface{}{"role": "farmer"})
		a.Set("role", map[string]interface{}{"primary": "farmer"})
		assert.Nil(t, a.Role)
		assert.Contains(t, a.Extra, "role")

		a.Set("role", nil)
		_, ok := a.Get("role")
		assert.False(t, ok, "Expected role to be removed")
		assert.Equal(t, 0, a.Len())
	})

	t.Run("Keys are sorted", func(t *testing.T) {
		a := NewAttributes(map[string]interface{}{"role": "farmer", "age": 40.0, "description": "a drunkard"})
		assert.Equal(t, []string{"age", "description", "role"}, a.Keys())
		assert.Equal(t, 3, a.Len())
	})

	t.Run("JSON round trip drops null values", func(t *testing.T) {
		var a Attributes
		require.NoError(t, json.Unmarshal([]byte(`{"role": "farmer", "birthDate": null, "traits": {"lazy": true}}`), &a))
		assert.Equal(t, []string{"role", "traits"}, a.Keys())

		data, err := json.Marshal(a)
		require.NoError(t, err)
		assert.JSONEq(t, `{"role": "farmer", "traits": {"lazy": true}}`, string(data))
	})

	t.Run("Empty attributes marshal as an object", func(t *testing.T) {
		data, err := json.Marshal(Attributes{})
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(data))
	})
}
