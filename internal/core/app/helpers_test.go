package app

import (
	"testing"

	"scopelens/internal/engine/transpile"

	"github.com/stretchr/testify/require"
)

type fakeTranspiler struct {
	out string
	err error
}

func (f fakeTranspiler) Transform(string) (string, error) { return f.out, f.err }

func mustEsbuild(t *testing.T) *transpile.Esbuild {
	t.Helper()
	e, err := transpile.NewEsbuild("js", "")
	require.NoError(t, err)
	return e
}
