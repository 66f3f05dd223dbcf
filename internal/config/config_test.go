package config

import (
	"os"
	"path/filepath"
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

func TestRequireEnvInt64(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		expected  int64
		wantPanic bool
	}{
		{
			name:     "negative chat id",
			key:      "TEST_CHAT_ID",
			value:    "-1001234567890",
			expected: -1001234567890,
		},
		{
			name:      "invalid integer",
			key:       "TEST_CHAT_ID_INVALID",
			value:     "not_a_number",
			wantPanic: true,
		},
		{
			name:      "missing variable",
			key:       "TEST_CHAT_ID_MISSING",
			value:     "",
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnvInt64() should have panicked")
					}
				}()
			}

			result := requireEnvInt64(tt.key)
			if !tt.wantPanic && result != tt.expected {
				t.Errorf("requireEnvInt64() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "one per line",
			value:    "golang\n  backend \n\nsre",
			expected: []string{"golang", "backend", "sre"},
		},
		{
			name:     "comma separated",
			value:    `golang, "site reliability", sre`,
			expected: []string{"golang", "site reliability", "sre"},
		},
		{
			name:     "empty",
			value:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitKeywords(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitKeywords() = %q, want %q", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitKeywords()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("JOBWATCH_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JOBWATCH_STATE_BACKEND", "memory")
	t.Setenv("JOBWATCH_RETENTION_DAYS", "3")
	t.Setenv("JOBWATCH_BLACKLIST_MATCH", "fold")
	t.Setenv("JOBWATCH_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("JOBWATCH_POSTINGS_CHAT_ID", "-1")
	t.Setenv("JOBWATCH_COMPANIES_CHAT_ID", "-2")
	t.Setenv("JOBWATCH_OPERATOR_CHAT_ID", "42")
	t.Setenv("JOBWATCH_REDIS_POOL_SIZE", "4")
	t.Setenv("JOBWATCH_REDIS_DIAL_TIMEOUT", "750ms")

	cfg := Load()

	if cfg.Retention != 72*time.Hour {
		t.Errorf("Retention = %v, want 72h", cfg.Retention)
	}
	if cfg.CycleInterval != 20*time.Minute {
		t.Errorf("CycleInterval = %v, want 20m", cfg.CycleInterval)
	}
	if !cfg.BlacklistFold {
		t.Error("BlacklistFold = false, want true")
	}
	if cfg.EmptyInclude != "accept" {
		t.Errorf("EmptyInclude = %q, want accept", cfg.EmptyInclude)
	}
	if cfg.PostingsChatID != -1 || cfg.CompaniesChatID != -2 || cfg.OperatorChatID != 42 {
		t.Errorf("chat ids = %d/%d/%d", cfg.PostingsChatID, cfg.CompaniesChatID, cfg.OperatorChatID)
	}
	if cfg.RedisPoolSize != 4 || cfg.RedisDT != 750*time.Millisecond {
		t.Errorf("redis pool/dial = %d/%v, want 4/750ms", cfg.RedisPoolSize, cfg.RedisDT)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("JOBWATCH_STATE_BACKEND=memory\nJOBWATCH_CYCLE_INTERVAL=5m\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBWATCH_ENV_FILE", path)
	// Registered so t.Setenv restores them after godotenv sets them.
	t.Setenv("JOBWATCH_STATE_BACKEND", "")
	t.Setenv("JOBWATCH_CYCLE_INTERVAL", "")
	if err := os.Unsetenv("JOBWATCH_STATE_BACKEND"); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv("JOBWATCH_CYCLE_INTERVAL"); err != nil {
		t.Fatal(err)
	}

	cfg := Load()

	if cfg.StateBackend != BackendMemory {
		t.Errorf("StateBackend = %q, want memory", cfg.StateBackend)
	}
	if cfg.CycleInterval != 5*time.Minute {
		t.Errorf("CycleInterval = %v, want 5m", cfg.CycleInterval)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("JOBWATCH_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("JOBWATCH_STATE_BACKEND", "sqlite")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked")
		}
	}()
	Load()
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
