package config_test

import (
	"testing"

	"github.com/sipsyai/flowengine/config"
)

func TestStoreGetSet(t *testing.T) {
	s := config.NewStore(map[string]any{"a": 1})

	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Fatalf("got %v, %v", v, ok)
	}

	s.Set("b", 2, config.SourceInternal)
	if v, ok := s.Get("b"); !ok || v != 2 {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestStoreSetNotifiesListenerWithBeforeAfter(t *testing.T) {
	s := config.NewStore(map[string]any{"a": 1})

	var gotNew, gotPrev map[string]any
	var gotSource config.Source
	calls := 0
	s.Subscribe(func(newConfig, previousConfig map[string]any, source config.Source) {
		calls++
		gotNew, gotPrev, gotSource = newConfig, previousConfig, source
	})

	s.Set("a", 2, config.SourceExternal)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if gotPrev["a"] != 1 {
		t.Fatalf("previous[a] = %v, want 1", gotPrev["a"])
	}
	if gotNew["a"] != 2 {
		t.Fatalf("new[a] = %v, want 2", gotNew["a"])
	}
	if gotSource != config.SourceExternal {
		t.Fatalf("source = %v, want external", gotSource)
	}
}

func TestStoreSetAllReplacesWholeMapping(t *testing.T) {
	s := config.NewStore(map[string]any{"a": 1, "b": 2})
	s.SetAll(map[string]any{"c": 3}, config.SourceInternal)

	all := s.All()
	if len(all) != 1 || all["c"] != 3 {
		t.Fatalf("all = %#v", all)
	}
}

func TestStoreAllIsACopy(t *testing.T) {
	s := config.NewStore(map[string]any{"a": 1})
	all := s.All()
	all["a"] = 999

	if v, _ := s.Get("a"); v != 1 {
		t.Fatalf("mutating All()'s result affected the store: got %v", v)
	}
}
