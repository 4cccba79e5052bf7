package actions

import (
	"sync"
	"sync/atomic"
	"testing"
)

const registryTestPrefix = "actions:registry_test"

func TestDefaultRegistry_ResolvesBuiltins(t *testing.T) {
	reg := DefaultRegistry()
	for _, v := range BuiltinVariants() {
		ctor, ok := reg.Lookup(v.Name)
		if !ok {
			t.Errorf("%s - expected %s to be registered", registryTestPrefix, v.Name)
			continue
		}
		if got := ctor().Name(); got != v.Name {
			t.Errorf("%s - constructor for %s built %s", registryTestPrefix, v.Name, got)
		}
	}
}

func TestRegistry_LookupIsCaseSensitive(t *testing.T) {
	reg := NewRegistry(BuiltinVariants)
	if _, ok := reg.Lookup("checkoutaction"); ok {
		t.Errorf("%s - lookup must not fold case", registryTestPrefix)
	}
	if _, ok := reg.Lookup("CheckOutAction"); !ok {
		t.Errorf("%s - expected CheckOutAction to resolve", registryTestPrefix)
	}
}

func TestRegistry_UnknownNameIsAbsent(t *testing.T) {
	reg := NewRegistry(BuiltinVariants)
	ctor, ok := reg.Lookup("NoSuchAction")
	if ok || ctor != nil {
		t.Errorf("%s - expected absent constructor, got ok=%v", registryTestPrefix, ok)
	}
}

func TestRegistry_ConstructorsReturnFreshInstances(t *testing.T) {
	reg := NewRegistry(BuiltinVariants)
	ctor, _ := reg.Lookup(BrowseActionName)
	if ctor() == ctor() {
		t.Errorf("%s - constructor must return a new handler per call", registryTestPrefix)
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := NewRegistry(func() []Variant {
		return []Variant{
			{Name: "Zeta", New: func() Handler { return &recordingHandler{name: "Zeta"} }},
			{Name: "Alpha", New: func() Handler { return &recordingHandler{name: "Alpha"} }},
			{Name: "", New: func() Handler { return &recordingHandler{} }},
			{Name: "NoCtor"},
		}
	})
	names := reg.Names()
	if len(names) != 2 || names[0] != "Alpha" || names[1] != "Zeta" {
		t.Errorf("%s - Names() = %v, want [Alpha Zeta]", registryTestPrefix, names)
	}
}

func TestRegistry_DuplicateNameLastWins(t *testing.T) {
	reg := NewRegistry(func() []Variant {
		return []Variant{
			{Name: "Dup", New: func() Handler { return &recordingHandler{name: "first"} }},
			{Name: "Dup", New: func() Handler { return &recordingHandler{name: "second"} }},
		}
	})
	ctor, ok := reg.Lookup("Dup")
	if !ok {
		t.Fatalf("%s - expected Dup to resolve", registryTestPrefix)
	}
	if got := ctor().Name(); got != "second" {
		t.Errorf("%s - duplicate registration resolved to %q, want second", registryTestPrefix, got)
	}
}

func TestRegistry_NotBuiltUntilFirstUse(t *testing.T) {
	var calls atomic.Int32
	reg := NewRegistry(func() []Variant {
		calls.Add(1)
		return BuiltinVariants()
	})
	if reg.Builds() != 0 || calls.Load() != 0 {
		t.Fatalf("%s - registry built eagerly", registryTestPrefix)
	}
	reg.Lookup(BrowseActionName)
	reg.Lookup(EditActionName)
	reg.Names()
	if reg.Builds() != 1 || calls.Load() != 1 {
		t.Errorf("%s - builds=%d discover calls=%d, want 1/1", registryTestPrefix, reg.Builds(), calls.Load())
	}
}

func TestRegistry_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	const goroutines = 64

	var calls atomic.Int32
	reg := NewRegistry(func() []Variant {
		calls.Add(1)
		return BuiltinVariants()
	})

	start := make(chan struct{})
	var wg sync.WaitGroup
	misses := atomic.Int32{}
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			// Every reader must see the complete index.
			for _, v := range BuiltinVariants() {
				if _, ok := reg.Lookup(v.Name); !ok {
					misses.Add(1)
				}
			}
		}()
	}
	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("%s - discover ran %d times, want 1", registryTestPrefix, calls.Load())
	}
	if reg.Builds() != 1 {
		t.Errorf("%s - Builds() = %d, want 1", registryTestPrefix, reg.Builds())
	}
	if misses.Load() != 0 {
		t.Errorf("%s - %d lookups observed a partial index", registryTestPrefix, misses.Load())
	}
}
