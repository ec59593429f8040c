package mw

import "testing"

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"board.example.com", "board.example.com", true},
		{"board.example.com:8080", "board.example.com", true},
		{"board.example.com:8080", "board.example.com:9090", false},
		{"localhost:8080", "localhost:8080", true},
		{"a.example.com", "*.example.com", true},
		{"a.example.com:443", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evilexample.com", "*.example.com", false},
		{"[::1]:8080", "::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"~"+tt.pattern, func(t *testing.T) {
			if got := matchHost(tt.host, tt.pattern); got != tt.want {
				t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
			}
		})
	}
}
