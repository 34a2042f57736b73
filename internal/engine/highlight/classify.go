// Package highlight classifies free variables against the ambient name set
// and marks their occurrences in the original source.
package highlight

import (
	"fmt"
	"strings"

	"scopelens/internal/engine/ambient"
	"scopelens/internal/engine/scope"
	"scopelens/internal/shared/util"
)

// Class is the bucket a free variable falls into.
type Class string

const (
	// ClassGlobal names resolve against the ambient set.
	ClassGlobal Class = "global"
	// ClassUndefined names resolve against nothing.
	ClassUndefined Class = "undefined"
)

// Label is one entry of a rendered name list.
type Label struct {
	Name  string
	Count int
}

func (l Label) String() string {
	if l.Count > 1 {
		return fmt.Sprintf("%s ×%d", l.Name, l.Count)
	}
	return l.Name
}

// ClassOf reports the bucket of a single name.
func ClassOf(name string, set *ambient.Set) Class {
	if set.Has(name) {
		return ClassGlobal
	}
	return ClassUndefined
}

// Classify splits free variables into ambient globals and undefined names,
// each sorted by name.
func Classify(free scope.FreeVariables, set *ambient.Set) (globals, undefined []Label) {
	for _, name := range util.SortedStringKeys(free) {
		label := Label{Name: name, Count: len(free[name])}
		if ClassOf(name, set) == ClassGlobal {
			globals = append(globals, label)
		} else {
			undefined = append(undefined, label)
		}
	}
	return globals, undefined
}

func JoinLabels(labels []Label) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, ", ")
}
