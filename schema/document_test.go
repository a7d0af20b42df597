package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"openapi": "3.0.0", "info": {"title": "T", "version": "1.0.0"}}`))
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", doc["openapi"])
	assert.Equal(t, "T", doc.Title())
}

func TestParseDocumentInvalid(t *testing.T) {
	_, err := ParseDocument([]byte(`{not json`))
	assert.Error(t, err)
}

func TestTitleMissing(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"openapi": "3.0.0"}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Title())
}

func TestBytesRoundTrip(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"b": 2, "a": [1, 2, {"nested": true}]}`))
	require.NoError(t, err)

	data, err := doc.Bytes()
	require.NoError(t, err)

	again, err := ParseDocument(data)
	require.NoError(t, err)
	assert.False(t, HasChanges(doc, again))
}

func TestCloneIsDeep(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"info": {"title": "T"}, "tags": ["a", "b"]}`))
	require.NoError(t, err)

	clone := doc.Clone()
	clone["info"].(map[string]interface{})["title"] = "mutated"
	clone["tags"].([]interface{})[0] = "mutated"

	assert.Equal(t, "T", doc["info"].(map[string]interface{})["title"])
	assert.Equal(t, "a", doc["tags"].([]interface{})[0])
}

func TestHasChanges(t *testing.T) {
	a, err := ParseDocument([]byte(`{"paths": {"/health": {"get": {}}}}`))
	require.NoError(t, err)
	b, err := ParseDocument([]byte(`{"paths": {"/health": {"get": {}}}}`))
	require.NoError(t, err)
	c, err := ParseDocument([]byte(`{"paths": {"/health": {"post": {}}}}`))
	require.NoError(t, err)

	assert.False(t, HasChanges(a, a))
	assert.False(t, HasChanges(a, b), "structurally equal documents have no changes")
	assert.True(t, HasChanges(a, c))
}
