package transpile

import (
	"strings"
	"testing"

	"scopelens/internal/core/errors"
	"scopelens/internal/engine/sourcemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEsbuild_EmitsInlineSourceMap(t *testing.T) {
	tr, err := NewEsbuild("", "")
	require.NoError(t, err)
	assert.Equal(t, LoaderJS, tr.Loader())

	out, err := tr.Transform("let x = y + 1;\n")
	require.NoError(t, err)
	assert.Contains(t, out, "//# sourceMappingURL=data:application/json;base64,")

	payload, err := sourcemap.ExtractPayload(out)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"input.js"`)
}

func TestEsbuild_LowersTypeScript(t *testing.T) {
	tr, err := NewEsbuild(LoaderTS, "snippet.ts")
	require.NoError(t, err)

	out, err := tr.Transform("const n: number = count as number;\n")
	require.NoError(t, err)
	assert.NotContains(t, out, ": number")
	assert.True(t, strings.Contains(out, "count"))
}

func TestEsbuild_SyntaxError(t *testing.T) {
	tr, err := NewEsbuild(LoaderJS, "")
	require.NoError(t, err)

	_, err = tr.Transform("let = ;")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTranspile), "got %v", err)
	assert.Contains(t, err.Error(), "line=1")
}

func TestNewEsbuild_UnknownLoader(t *testing.T) {
	_, err := NewEsbuild("coffee", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestValidLoader(t *testing.T) {
	for _, name := range Loaders() {
		assert.True(t, ValidLoader(name), name)
	}
	assert.True(t, ValidLoader(" TSX "))
	assert.False(t, ValidLoader("coffee"))
}
