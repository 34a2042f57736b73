// Package transpile lowers the original source to plain JavaScript with an
// inline source map, using esbuild's transform API.
package transpile

import (
	"fmt"
	"strings"

	"scopelens/internal/core/errors"

	"github.com/evanw/esbuild/pkg/api"
)

// Transpiler lowers source text to generated JavaScript carrying an inline,
// base64-encoded source map as its final comment.
type Transpiler interface {
	Transform(source string) (string, error)
}

const (
	LoaderJS  = "js"
	LoaderJSX = "jsx"
	LoaderTS  = "ts"
	LoaderTSX = "tsx"
)

var loaders = map[string]api.Loader{
	LoaderJS:  api.LoaderJS,
	LoaderJSX: api.LoaderJSX,
	LoaderTS:  api.LoaderTS,
	LoaderTSX: api.LoaderTSX,
}

// Loaders lists the accepted loader names.
func Loaders() []string {
	return []string{LoaderJS, LoaderJSX, LoaderTS, LoaderTSX}
}

func ValidLoader(name string) bool {
	_, ok := loaders[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

type Esbuild struct {
	loaderName string
	loader     api.Loader
	sourcefile string
}

// NewEsbuild returns a transpiler for the given loader. sourcefile names the
// input inside the generated source map.
func NewEsbuild(loader, sourcefile string) (*Esbuild, error) {
	name := strings.ToLower(strings.TrimSpace(loader))
	if name == "" {
		name = LoaderJS
	}
	l, ok := loaders[name]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("unknown loader %q", loader)),
			errors.CtxLoader, loader,
		)
	}
	if sourcefile == "" {
		sourcefile = "input." + name
	}
	return &Esbuild{loaderName: name, loader: l, sourcefile: sourcefile}, nil
}

func (e *Esbuild) Loader() string { return e.loaderName }

func (e *Esbuild) Transform(source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     e.loader,
		Sourcefile: e.sourcefile,
		Sourcemap:  api.SourceMapInline,
		Target:     api.ESNext,
		// Keep non-ASCII identifiers verbatim so name lengths match the original.
		Charset:  api.CharsetUTF8,
		LogLevel: api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", transformError(result.Errors[0], len(result.Errors), e.loaderName)
	}
	return string(result.Code), nil
}

func transformError(msg api.Message, total int, loader string) error {
	text := msg.Text
	if total > 1 {
		text = fmt.Sprintf("%s (and %d more errors)", text, total-1)
	}
	err := errors.New(errors.CodeTranspile, text)
	err = errors.AddContext(err, errors.CtxLoader, loader)
	if msg.Location != nil {
		err = errors.AddContext(err, errors.CtxLine, msg.Location.Line)
		err = errors.AddContext(err, errors.CtxColumn, msg.Location.Column)
	}
	return err
}
