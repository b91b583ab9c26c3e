package engine

import (
	"testing"
)

func TestResolve_NoPlaceholders(t *testing.T) {
	ec := NewContext(map[string]any{"name": "test"})

	tests := []string{
		"",
		"plain text",
		"curly } without open",
		"{ spaced braces }",
		"{}",
	}

	for _, tmpl := range tests {
		if got := Resolve(tmpl, ec); got != tmpl {
			t.Errorf("Resolve(%q) = %q, want unchanged", tmpl, got)
		}
	}
}

func TestResolve_SimplePaths(t *testing.T) {
	ec := NewContext(map[string]any{
		"name":   "ivan",
		"count":  float64(42),
		"active": true,
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "string value",
			template: "hello, {name}!",
			expected: "hello, ivan!",
		},
		{
			name:     "number value",
			template: "count: {count}",
			expected: "count: 42",
		},
		{
			name:     "bool value",
			template: "active={active}",
			expected: "active=true",
		},
		{
			name:     "multiple placeholders",
			template: "{name} has {count}",
			expected: "ivan has 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.template, ec); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolve_NestedPaths(t *testing.T) {
	ec := NewContext(map[string]any{
		"user": map[string]any{
			"profile": map[string]any{"name": "anna"},
		},
		"items": []any{
			map[string]any{"id": "first"},
			map[string]any{"id": "second"},
		},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "dotted map path",
			template: "{user.profile.name}",
			expected: "anna",
		},
		{
			name:     "indexed list path",
			template: "{items.1.id}",
			expected: "second",
		},
		{
			name:     "container serialized to JSON",
			template: "{user.profile}",
			expected: `{"name":"anna"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.template, ec); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolve_MissingPathLeftVerbatim(t *testing.T) {
	ec := NewContext(map[string]any{
		"name":  "ivan",
		"items": []any{"a"},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "missing key",
			template: "hello, {missing}",
			expected: "hello, {missing}",
		},
		{
			name:     "missing alongside resolved",
			template: "{name} and {missing.path}",
			expected: "ivan and {missing.path}",
		},
		{
			name:     "index out of range",
			template: "{items.5}",
			expected: "{items.5}",
		},
		{
			name:     "traversal through scalar",
			template: "{name.inner}",
			expected: "{name.inner}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.template, ec); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolveAny_CoercesNonString(t *testing.T) {
	ec := NewContext(map[string]any{"x": "y"})

	if got := ResolveAny(42, ec); got != "42" {
		t.Errorf("expected %q, got %q", "42", got)
	}
	if got := ResolveAny(true, ec); got != "true" {
		t.Errorf("expected %q, got %q", "true", got)
	}
	if got := ResolveAny("{x}", ec); got != "y" {
		t.Errorf("expected %q, got %q", "y", got)
	}
}

func TestResolveParams(t *testing.T) {
	ec := NewContext(map[string]any{
		"token": "secret",
		"user":  map[string]any{"id": "u1"},
	})

	params := map[string]any{
		"url": "https://api.example.com/users/{user.id}",
		"headers": map[string]any{
			"Authorization": "Bearer {token}",
		},
		"tags":  []any{"{user.id}", "static"},
		"count": 3,
	}

	resolved := ResolveParams(params, ec)

	if resolved["url"] != "https://api.example.com/users/u1" {
		t.Errorf("url not resolved: %v", resolved["url"])
	}

	headers, ok := resolved["headers"].(map[string]any)
	if !ok || headers["Authorization"] != "Bearer secret" {
		t.Errorf("nested header not resolved: %v", resolved["headers"])
	}

	tags, ok := resolved["tags"].([]any)
	if !ok || tags[0] != "u1" || tags[1] != "static" {
		t.Errorf("list not resolved: %v", resolved["tags"])
	}

	if resolved["count"] != 3 {
		t.Errorf("non-string value changed: %v", resolved["count"])
	}

	// Исходная map не модифицируется
	if params["url"] != "https://api.example.com/users/{user.id}" {
		t.Error("original params mutated")
	}
}

func TestResolveParams_Nil(t *testing.T) {
	resolved := ResolveParams(nil, NewContext(nil))
	if resolved == nil {
		t.Fatal("expected non-nil map")
	}
	if len(resolved) != 0 {
		t.Errorf("expected empty map, got %v", resolved)
	}
}
