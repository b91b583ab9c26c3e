package engine

import (
	"reflect"
	"testing"
)

func TestNewContext(t *testing.T) {
	// С nil seed
	ec := NewContext(nil)
	if ec.Len() != 0 {
		t.Errorf("expected empty context, got %d keys", ec.Len())
	}

	// С seed
	ec = NewContext(map[string]any{"key": "value"})
	if ec.GetString("key") != "value" {
		t.Error("seed values should be present")
	}

	// Seed копируется: мутация контекста не трогает исходную map
	seed := map[string]any{"a": 1}
	ec = NewContext(seed)
	ec.Set("b", 2)
	if _, ok := seed["b"]; ok {
		t.Error("seed map should not be mutated")
	}
}

func TestContext_Accessors(t *testing.T) {
	ec := NewContext(map[string]any{
		"str":   "text",
		"int":   7,
		"float": float64(8),
		"bool":  true,
		"map":   map[string]any{"k": "v"},
		"list":  []any{"a", "b"},
	})

	if ec.GetString("str") != "text" {
		t.Error("GetString failed")
	}
	if ec.GetString("int") != "" {
		t.Error("GetString on non-string should return empty")
	}
	if ec.GetInt("int") != 7 {
		t.Error("GetInt on int failed")
	}
	if ec.GetInt("float") != 8 {
		t.Error("GetInt on float64 failed")
	}
	if !ec.GetBool("bool") {
		t.Error("GetBool failed")
	}
	if ec.GetMap("map")["k"] != "v" {
		t.Error("GetMap failed")
	}
	if len(ec.GetSlice("list")) != 2 {
		t.Error("GetSlice failed")
	}
	if ec.GetMap("str") != nil {
		t.Error("GetMap on non-map should return nil")
	}
}

func TestContext_SetDefault(t *testing.T) {
	ec := NewContext(map[string]any{"present": "original"})

	ec.SetDefault("present", "overwritten")
	ec.SetDefault("absent", "added")

	if ec.GetString("present") != "original" {
		t.Error("SetDefault should not overwrite")
	}
	if ec.GetString("absent") != "added" {
		t.Error("SetDefault should add missing key")
	}
}

func TestContext_CompletionMarker(t *testing.T) {
	ec := NewContext(nil)

	if ec.IsCompleted() {
		t.Error("fresh context should not be completed")
	}

	ec.MarkCompleted()

	if !ec.IsCompleted() {
		t.Error("context should be completed after MarkCompleted")
	}
	if !ec.GetBool(CompletedKey) {
		t.Error("completion flag should be stored under CompletedKey")
	}
}

func TestContext_Values_Snapshot(t *testing.T) {
	ec := NewContext(map[string]any{"a": 1})

	snapshot := ec.Values()
	snapshot["b"] = 2

	if ec.Has("b") {
		t.Error("mutating snapshot should not affect context")
	}
}

func TestContext_Clone(t *testing.T) {
	ec := NewContext(map[string]any{
		"nested": map[string]any{"k": "v"},
	})

	clone := ec.Clone()
	clone.GetMap("nested")["k"] = "changed"

	if ec.GetMap("nested")["k"] != "v" {
		t.Error("clone should deep-copy nested containers")
	}
}

func TestContext_Keys(t *testing.T) {
	ec := NewContext(map[string]any{"b": 1, "a": 2, "c": 3})

	keys := ec.Keys()
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Errorf("expected sorted keys, got %v", keys)
	}
}

func TestContext_Lookup(t *testing.T) {
	ec := NewContext(map[string]any{
		"user": map[string]any{
			"tags": []any{"x", "y"},
		},
		"scalar": 5,
	})

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{"top-level key", "scalar", 5, true},
		{"nested map", "user.tags", []any{"x", "y"}, true},
		{"list index", "user.tags.1", "y", true},
		{"missing key", "nope", nil, false},
		{"missing nested", "user.nope", nil, false},
		{"index out of range", "user.tags.9", nil, false},
		{"negative index", "user.tags.-1", nil, false},
		{"through scalar", "scalar.deep", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ec.Lookup(tt.path)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
