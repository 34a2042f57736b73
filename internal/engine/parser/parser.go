// # internal/engine/parser/parser.go
package parser

import (
	"log/slog"
	"time"

	"scopelens/internal/core/errors"
	"scopelens/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

const languageJavaScript = "javascript"

// Parser turns generated JavaScript into tree-sitter syntax trees.
type Parser struct {
	pool   *Pool
	strict bool
}

// Tree owns a parsed syntax tree together with the source it was built from.
// Close must be called once the tree is no longer needed.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// JavaScript returns the grammar used for generated output.
func JavaScript() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_javascript.Language())
}

// New creates a Parser. With strict set, trees containing error nodes are
// rejected instead of analyzed through error recovery.
func New(strict bool) *Parser {
	return &Parser{
		pool:   NewPool(JavaScript()),
		strict: strict,
	}
}

func (p *Parser) Parse(source []byte) (*Tree, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(languageJavaScript).Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Acquire()
	defer p.pool.Release(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParse, "parse failed")
	}
	root := tree.RootNode()
	if root.HasError() {
		if p.strict {
			tree.Close()
			return nil, errors.AddContext(
				errors.New(errors.CodeParse, "syntax tree contains error nodes"),
				errors.CtxOperation, "parse",
			)
		}
		slog.Debug("syntax tree contains error nodes, continuing with recovery", "bytes", len(source))
	}
	return &Tree{tree: tree, Source: source}, nil
}

// Leased reports parsers currently checked out of the pool.
func (p *Parser) Leased() int {
	return p.pool.Leased()
}

// OldestLease reports the age of the longest running parse.
func (p *Parser) OldestLease() time.Duration {
	return p.pool.OldestLease()
}
