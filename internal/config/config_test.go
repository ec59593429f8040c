package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestRequireEnvInt(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  int
		wantPanic bool
	}{
		{
			name:      "valid integer",
			key:       "TEST_INT",
			value:     "42",
			expected:  42,
			wantPanic: false,
		},
		{
			name:      "invalid integer",
			key:       "TEST_INT_INVALID",
			value:     "not_a_number",
			wantPanic: true,
		},
		{
			name:      "missing variable",
			key:       "TEST_INT_MISSING",
			value:     "",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt() should have panicked")
					}
				}()
			}

			result := requireEnvInt(tt.key)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSeedFormat(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		explicit  string
		expected  string
		wantPanic bool
	}{
		{name: "yaml extension", path: "/app/bookmarks.yaml", expected: SeedHomepage},
		{name: "yml extension", path: "/app/Bookmarks.YML", expected: SeedHomepage},
		{name: "chrome profile file", path: "/home/me/.config/google-chrome/Default/Bookmarks", expected: SeedChrome},
		{name: "explicit wins", path: "/app/bookmarks.yaml", explicit: "Chrome", expected: SeedChrome},
		{name: "unknown format", path: "/app/x", explicit: "firefox", wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("seedFormat() should have panicked")
					}
				}()
			}

			result := seedFormat(tt.path, tt.explicit)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("seedFormat() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKMARKO_STORE", "")
	t.Setenv("BOOKMARKO_SEED_FILE", "/app/bookmarks.yaml")
	t.Setenv("BOOKMARKO_ALLOWED_HOSTS", "board.domain.ext, 'localhost:8080'")

	cfg := Load()

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %v, want %v", cfg.StoreBackend, BackendMemory)
	}
	if cfg.WatchedRoot != "1" {
		t.Errorf("WatchedRoot = %v, want 1", cfg.WatchedRoot)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 300ms", cfg.SearchDebounce)
	}
	if cfg.FollowStoreOrder {
		t.Error("FollowStoreOrder should default to false")
	}
	if cfg.SeedFormat != SeedHomepage {
		t.Errorf("SeedFormat = %v, want %v", cfg.SeedFormat, SeedHomepage)
	}
	if cfg.SeedDebounce != 300*time.Millisecond {
		t.Errorf("SeedDebounce = %v, want 300ms", cfg.SeedDebounce)
	}
	if len(cfg.AllowedHosts) != 2 || cfg.AllowedHosts[1] != "localhost:8080" {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr should stay empty with the memory backend, got %v", cfg.RedisAddr)
	}
}

func TestLoadRedisBackend(t *testing.T) {
	t.Setenv("BOOKMARKO_STORE", BackendRedis)
	t.Setenv("BOOKMARKO_REDIS_ADDR", "localhost:6379")
	t.Setenv("BOOKMARKO_REDIS_DB", "2")
	t.Setenv("BOOKMARKO_REDIS_PASSWORD_REQUIRED", "false")

	cfg := Load()

	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis settings = %v db %v", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.RedisPoolSize != 10 {
		t.Errorf("RedisPoolSize = %v, want 10", cfg.RedisPoolSize)
	}
}

func TestLoadUnknownBackendPanics(t *testing.T) {
	t.Setenv("BOOKMARKO_STORE", "sqlite")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
}
