// # internal/engine/parser/pool.go
package parser

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pool hands out tree-sitter parsers bound to one grammar and remembers when
// each was checked out, so a parse that never returns shows up in health.
type Pool struct {
	lang *sitter.Language
	free sync.Pool

	mu     sync.Mutex
	leases map[*sitter.Parser]time.Time
}

func NewPool(lang *sitter.Language) *Pool {
	p := &Pool{
		lang:   lang,
		leases: make(map[*sitter.Parser]time.Time),
	}
	p.free.New = func() any {
		sp := sitter.NewParser()
		_ = sp.SetLanguage(lang)
		return sp
	}
	return p
}

// Acquire leases a parser. It must be handed back with Release.
func (p *Pool) Acquire() *sitter.Parser {
	sp := p.free.Get().(*sitter.Parser)
	_ = sp.SetLanguage(p.lang)

	p.mu.Lock()
	p.leases[sp] = time.Now()
	p.mu.Unlock()
	return sp
}

// Release resets sp and returns it to the pool. Nil is ignored.
func (p *Pool) Release(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.mu.Lock()
	delete(p.leases, sp)
	p.mu.Unlock()

	sp.Reset()
	p.free.Put(sp)
}

func (p *Pool) Leased() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leases)
}

// OldestLease is how long the longest outstanding parser has been checked
// out, or zero when none is.
func (p *Pool) OldestLease() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var oldest time.Duration
	now := time.Now()
	for _, at := range p.leases {
		if d := now.Sub(at); d > oldest {
			oldest = d
		}
	}
	return oldest
}
