package store

import (
	"testing"
)

// Компилируемость этой декларации гарантирует, что Postgres и контракт
// Store не разъезжаются по сигнатурам.
var _ Store = (*Postgres)(nil)

func TestMarshalFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "nil filter matches everything",
			filter: nil,
			want:   `{}`,
		},
		{
			name:   "empty filter",
			filter: Filter{},
			want:   `{}`,
		},
		{
			name:   "single field",
			filter: Filter{"scenario_id": "greeting"},
			want:   `{"scenario_id":"greeting"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := marshalFilter(tt.filter)
			if err != nil {
				t.Fatalf("marshalFilter: %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("marshalFilter = %s, want %s", raw, tt.want)
			}
		})
	}
}

func TestUnmarshalDoc(t *testing.T) {
	doc, err := unmarshalDoc([]byte(`{"channel_id":"tg-main","transport":{"kind":"queue"}}`))
	if err != nil {
		t.Fatalf("unmarshalDoc: %v", err)
	}
	if doc["channel_id"] != "tg-main" {
		t.Errorf("channel_id = %v, want tg-main", doc["channel_id"])
	}

	if _, err := unmarshalDoc([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
