// Package scope finds the free variables of a JavaScript syntax tree: names
// that are read somewhere but never bound in any enclosing lexical scope.
package scope

import (
	"sort"
)

// Target tells the walker how to record an identifier it reaches.
type Target int

const (
	// None records the identifier as a usage.
	None Target = iota
	// FunctionScope binds in the nearest function or program (legacy var hoisting).
	FunctionScope
	// BlockScope binds in the nearest block, loop, switch, catch, class or function.
	BlockScope
)

func (t Target) String() string {
	switch t {
	case FunctionScope:
		return "function"
	case BlockScope:
		return "block"
	default:
		return "none"
	}
}

// Reference is one identifier occurrence, captured so it outlives the tree.
type Reference struct {
	Name      string
	StartByte int
	EndByte   int
	// Line is 1-based, Column is a 0-based byte column.
	Line   int
	Column int
}

// FreeVariables maps each unbound name to every node where it is read.
type FreeVariables map[string][]Reference

// Names returns the free names in sorted order.
func (f FreeVariables) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total counts every occurrence of every name.
func (f FreeVariables) Total() int {
	total := 0
	for _, refs := range f {
		total += len(refs)
	}
	return total
}

func (f FreeVariables) sortByPosition() {
	for _, refs := range f {
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].StartByte < refs[j].StartByte
		})
	}
}

// Scope accumulates the declarations of one lexical region and the usages
// seen inside it, including the unresolved usages of nested regions.
//
// Declarations only grow until Negate runs. After Negate the scope may only
// receive Merge calls.
type Scope struct {
	declarations map[string]struct{}
	identifiers  map[string][]Reference
}

func NewScope() *Scope {
	return &Scope{
		declarations: make(map[string]struct{}),
		identifiers:  make(map[string][]Reference),
	}
}

func (s *Scope) Declare(name string) {
	s.declarations[name] = struct{}{}
}

func (s *Scope) Declared(name string) bool {
	_, ok := s.declarations[name]
	return ok
}

func (s *Scope) Use(ref Reference) {
	s.identifiers[ref.Name] = append(s.identifiers[ref.Name], ref)
}

// Negate drops every declared name from the accumulated usages and returns
// what is left: the region's free variables. It is destructive and meant to
// run once, after all children of the region have been walked.
func (s *Scope) Negate() FreeVariables {
	for name := range s.declarations {
		delete(s.identifiers, name)
	}
	return FreeVariables(s.identifiers)
}

// Merge folds a child's negated free variables into this scope.
func (s *Scope) Merge(child FreeVariables) {
	for name, refs := range child {
		s.identifiers[name] = append(s.identifiers[name], refs...)
	}
}
