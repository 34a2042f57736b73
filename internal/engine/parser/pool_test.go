// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
	"time"
)

func TestPool_AcquireRelease(t *testing.T) {
	pool := NewPool(JavaScript())

	sp := pool.Acquire()
	if sp == nil {
		t.Fatal("expected a parser")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	time.Sleep(5 * time.Millisecond)
	if pool.OldestLease() <= 0 {
		t.Fatal("expected a positive lease age")
	}

	pool.Release(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}
	if pool.OldestLease() != 0 {
		t.Fatalf("expected zero lease age, got %v", pool.OldestLease())
	}
}

func TestPool_ReleaseNil(t *testing.T) {
	NewPool(JavaScript()).Release(nil)
}

func TestPool_ParsesJavaScript(t *testing.T) {
	pool := NewPool(JavaScript())
	sp := pool.Acquire()
	defer pool.Release(sp)

	tree := sp.Parse([]byte("const f = (a) => a + b;\n"), nil)
	if tree == nil {
		t.Fatal("expected a tree")
	}
	defer tree.Close()
	if tree.RootNode().HasError() {
		t.Fatal("expected an error-free tree")
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool(JavaScript())
	src := []byte("let a = 1; a += b;\n")

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				sp := pool.Acquire()
				if tree := sp.Parse(src, nil); tree != nil {
					tree.Close()
				} else {
					t.Error("nil tree")
				}
				pool.Release(sp)
			}
		}()
	}
	wg.Wait()

	if n := pool.Leased(); n != 0 {
		t.Fatalf("expected all parsers released, got %d", n)
	}
}
