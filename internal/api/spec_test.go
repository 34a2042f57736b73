package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSpecIsValid(t *testing.T) {
	doc, err := LoadSpec(SpecData())
	require.NoError(t, err)
	assert.Equal(t, "scopelens", doc.Info.Title)

	route, err := routeFor(doc, analyzePath, http.MethodPost)
	require.NoError(t, err)
	assert.Equal(t, "analyze", route.Operation.OperationID)
}

func TestLoadSpecErrors(t *testing.T) {
	_, err := LoadSpec(nil)
	assert.Error(t, err)

	_, err = LoadSpec([]byte("openapi: 3.0.3\ninfo: {}\npaths: {}\n"))
	assert.Error(t, err)
}

func TestRouteForUnknownOperation(t *testing.T) {
	doc, err := LoadSpec(SpecData())
	require.NoError(t, err)

	_, err = routeFor(doc, "/v1/missing", http.MethodPost)
	assert.Error(t, err)

	_, err = routeFor(doc, "/health", http.MethodDelete)
	assert.Error(t, err)
}
