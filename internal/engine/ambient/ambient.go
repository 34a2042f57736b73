// Package ambient holds the fixed set of names resolvable without a
// declaration in the analyzed program.
package ambient

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed globals.txt
var defaultList string

// Set is immutable once built; all methods are safe for concurrent use.
type Set struct {
	names map[string]struct{}
}

var defaultSet = sync.OnceValue(func() *Set {
	names, err := ReadNames(strings.NewReader(defaultList))
	if err != nil {
		panic(fmt.Sprintf("ambient: embedded name list: %v", err))
	}
	return New(names...)
})

// Default returns the embedded host environment snapshot.
func Default() *Set { return defaultSet() }

func New(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.names[name] = struct{}{}
	}
	return s
}

// Options customises the set built by Build.
type Options struct {
	File    string
	Extra   []string
	Exclude []string
}

// Build returns Default extended with the names in opts.File and opts.Extra,
// minus opts.Exclude. The default set is never modified.
func Build(opts Options) (*Set, error) {
	base := Default()
	names := make([]string, 0, base.Len()+len(opts.Extra))
	names = append(names, base.Names()...)
	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return nil, fmt.Errorf("open ambient names file: %w", err)
		}
		defer f.Close()
		fromFile, err := ReadNames(f)
		if err != nil {
			return nil, fmt.Errorf("read ambient names file %q: %w", opts.File, err)
		}
		names = append(names, fromFile...)
	}
	names = append(names, opts.Extra...)

	s := New(names...)
	for _, name := range opts.Exclude {
		delete(s.names, strings.TrimSpace(name))
	}
	return s, nil
}

// ReadNames parses one name per line; blank lines and '#' comments are skipped.
func ReadNames(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the sorted member names.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
