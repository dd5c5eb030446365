package utils

import "testing"

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name                string
		pageStr, limitStr   string
		page, limit, offset int
	}{
		{"defaults", "", "", 1, 20, 0},
		{"explicit", "3", "10", 3, 10, 20},
		{"garbage falls back", "abc", "-5", 1, 20, 0},
		{"zero page falls back", "0", "10", 1, 10, 0},
		{"limit capped", "1", "5000", 1, 100, 0},
	}

	for _, tt := range tests {
		page, limit, offset := ParsePagination(tt.pageStr, tt.limitStr)
		if page != tt.page || limit != tt.limit || offset != tt.offset {
			t.Errorf("%s: got (%d, %d, %d), want (%d, %d, %d)",
				tt.name, page, limit, offset, tt.page, tt.limit, tt.offset)
		}
	}
}

func TestNewPageEnvelope(t *testing.T) {
	env := NewPageEnvelope([]int{1, 2, 3}, 2, 3, 10)
	if env.Page != 2 || env.Limit != 3 || env.Total != 10 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	data, ok := env.Data.([]int)
	if !ok || len(data) != 3 {
		t.Fatalf("envelope data not preserved: %+v", env.Data)
	}
}
