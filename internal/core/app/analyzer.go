package app

import (
	"context"
	"log/slog"
	"time"

	"scopelens/internal/core/errors"
	"scopelens/internal/core/ports"
	"scopelens/internal/engine/ambient"
	"scopelens/internal/engine/highlight"
	"scopelens/internal/engine/parser"
	"scopelens/internal/engine/scope"
	"scopelens/internal/engine/sourcemap"
	"scopelens/internal/engine/transpile"
	"scopelens/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	Result     = ports.Result
	Occurrence = ports.Occurrence
)

// AnalyzerOptions configures NewAnalyzer. Zero values fall back to the js
// loader, the default ambient set and the HTML renderer.
type AnalyzerOptions struct {
	Loader      string
	Sourcefile  string
	StrictParse bool
	Ambient     *ambient.Set
	Renderer    highlight.Renderer
}

// Analyzer runs the free-variable pipeline: transpile, decode the inline
// source map, parse, resolve scopes, then classify and highlight in the
// original text. It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	transpiler transpile.Transpiler
	parser     *parser.Parser
	ambient    *ambient.Set
	renderer   highlight.Renderer
	loader     string
}

func NewAnalyzer(opts AnalyzerOptions) (*Analyzer, error) {
	t, err := transpile.NewEsbuild(opts.Loader, opts.Sourcefile)
	if err != nil {
		return nil, err
	}
	a := NewAnalyzerWith(t, parser.New(opts.StrictParse), opts.Ambient, opts.Renderer)
	a.loader = t.Loader()
	return a, nil
}

// NewAnalyzerWith assembles an Analyzer from explicit collaborators.
func NewAnalyzerWith(t transpile.Transpiler, p *parser.Parser, set *ambient.Set, r highlight.Renderer) *Analyzer {
	if set == nil {
		set = ambient.Default()
	}
	if r == nil {
		r = highlight.NewHTMLRenderer("", "")
	}
	return &Analyzer{
		transpiler: t,
		parser:     p,
		ambient:    set,
		renderer:   r,
		loader:     transpile.LoaderJS,
	}
}

func (a *Analyzer) Loader() string { return a.loader }

func (a *Analyzer) Ambient() *ambient.Set { return a.ambient }

// WithLoader returns a copy of a that transpiles with another loader. The
// parser pool, ambient set and renderer are shared.
func (a *Analyzer) WithLoader(loader string) (*Analyzer, error) {
	if loader == "" || loader == a.loader {
		return a, nil
	}
	t, err := transpile.NewEsbuild(loader, "")
	if err != nil {
		return nil, err
	}
	clone := *a
	clone.transpiler = t
	clone.loader = t.Loader()
	return &clone, nil
}

// Parse analyzes source and returns the rendered globals, undefined names and
// highlighted text.
func (a *Analyzer) Parse(ctx context.Context, source string) (res *Result, err error) {
	ctx, span := observability.Tracer.Start(ctx, "Analyzer.Parse", trace.WithAttributes(
		attribute.String("loader", a.loader),
		attribute.Int("source.bytes", len(source)),
	))
	defer span.End()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(errors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.AnalysesTotal.WithLabelValues(outcome).Inc()
	}()

	var generated string
	err = a.stage(ctx, "transpile", func() error {
		var terr error
		generated, terr = a.transpiler.Transform(source)
		return terr
	})
	if err != nil {
		return nil, err
	}

	var locator *sourcemap.Locator
	err = a.stage(ctx, "locate", func() error {
		var lerr error
		locator, lerr = sourcemap.NewLocator(generated, source)
		return lerr
	})
	if err != nil {
		return nil, err
	}

	var free scope.FreeVariables
	err = a.stage(ctx, "resolve", func() error {
		tree, perr := a.parser.Parse([]byte(generated))
		if perr != nil {
			return perr
		}
		defer tree.Close()
		free = scope.Resolve(tree.Root(), tree.Source)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = a.stage(ctx, "highlight", func() error {
		res = a.render(source, free, locator)
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("free.names", len(free)),
		attribute.Int("free.occurrences", free.Total()),
		attribute.Int("free.unmapped", res.Unmapped),
	)
	return res, nil
}

func (a *Analyzer) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return errors.AddContext(err, errors.CtxOperation, name)
	}
	_, span := observability.Tracer.Start(ctx, "Analyzer."+name)
	defer span.End()

	start := time.Now()
	err := fn()
	observability.AnalysisDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (a *Analyzer) render(source string, free scope.FreeVariables, locator *sourcemap.Locator) *Result {
	globals, undefined := highlight.Classify(free, a.ambient)
	observability.FreeVariablesTotal.WithLabelValues(string(highlight.ClassGlobal)).Add(float64(countLabels(globals)))
	observability.FreeVariablesTotal.WithLabelValues(string(highlight.ClassUndefined)).Add(float64(countLabels(undefined)))

	res := &Result{
		Globals:     highlight.JoinLabels(globals),
		Undefined:   highlight.JoinLabels(undefined),
		Occurrences: make([]Occurrence, 0, free.Total()),
	}

	original := locator.Original()
	spans := make([]highlight.Span, 0, free.Total())
	for _, name := range free.Names() {
		class := highlight.ClassOf(name, a.ambient)
		for _, ref := range free[name] {
			start, ok := locator.Locate(ref.StartByte)
			end := start + len(name)
			// The mapped position must hold the same name; generated helpers
			// such as JSX factory calls map onto unrelated original text.
			if !ok || end > len(source) || source[start:end] != name {
				res.Unmapped++
				observability.UnmappedReferencesTotal.Inc()
				slog.Debug("free variable has no original position",
					"name", name, "generated_line", ref.Line, "generated_column", ref.Column)
				continue
			}
			lc := original.ToLineColumn(start)
			spans = append(spans, highlight.Span{Start: start, End: end, Class: class})
			res.Occurrences = append(res.Occurrences, Occurrence{
				Name:   name,
				Class:  string(class),
				Start:  start,
				End:    end,
				Line:   lc.Line,
				Column: lc.Column,
			})
		}
	}

	res.Highlighted = a.renderer.Render(highlight.Inject(source, spans))
	return res
}

func countLabels(labels []highlight.Label) int {
	n := 0
	for _, l := range labels {
		n += l.Count
	}
	return n
}
