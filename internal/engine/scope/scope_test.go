package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_NegateRemovesDeclarations(t *testing.T) {
	s := NewScope()
	s.Declare("x")
	s.Use(Reference{Name: "x", StartByte: 1})
	s.Use(Reference{Name: "y", StartByte: 2})

	free := s.Negate()
	assert.Equal(t, []string{"y"}, free.Names())
	assert.True(t, s.Declared("x"))
}

func TestScope_MergePropagatesUpward(t *testing.T) {
	parent := NewScope()
	parent.Declare("a")
	parent.Use(Reference{Name: "b", StartByte: 0})

	child := NewScope()
	child.Declare("c")
	child.Use(Reference{Name: "a", StartByte: 5})
	child.Use(Reference{Name: "b", StartByte: 6})
	child.Use(Reference{Name: "c", StartByte: 7})

	parent.Merge(child.Negate())
	free := parent.Negate()

	assert.Equal(t, []string{"b"}, free.Names())
	assert.Len(t, free["b"], 2)
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "function", FunctionScope.String())
	assert.Equal(t, "block", BlockScope.String())
}
