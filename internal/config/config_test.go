package config

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	tests := []struct {
		envValue   string
		defaultVal bool
		expected   bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"", true, true},
		{"maybe", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.envValue, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tc.envValue)
			if got := getEnvAsBoolOrDefault("TEST_BOOL", tc.defaultVal); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestGetEnvAsListOrDefault(t *testing.T) {
	t.Setenv("TEST_LIST", " english.greetings, ,./corpus ")
	got := getEnvAsListOrDefault("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "english.greetings" || got[1] != "./corpus" {
		t.Errorf("Unexpected list %v", got)
	}
}

// clearEnv blanks every variable Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "DEBUG", "LOG_LEVEL", "BOT_NAME", "CORPUS", "TRAIN_ON_START",
		"FORCE_RETRAIN", "READ_ONLY", "DEFAULT_RESPONSE", "MAXIMUM_SIMILARITY_THRESHOLD",
		"STATEMENT_COMPARISON", "RESPONSE_SELECTION", "STORAGE_BACKEND", "DATABASE_URL",
		"REDIS_URL", "REDIS_KEY_PREFIX", "GEMINI_API_KEY", "GEMINI_MODEL",
		"GEMINI_CONFIDENCE", "GEMINI_CONCURRENT_REQUESTS", "JWT_SECRET", "CORS_ORIGINS",
		"RATE_LIMIT_PER_MINUTE", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("Expected port 5000, got %q", cfg.Port)
	}
	if cfg.StorageBackend != StorageMemory {
		t.Errorf("Expected memory storage, got %q", cfg.StorageBackend)
	}
	if cfg.LogLevel != zapcore.InfoLevel {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
	if !cfg.TrainOnStart || len(cfg.Corpora) != 1 || cfg.Corpora[0] != "english" {
		t.Errorf("Unexpected training defaults %v %v", cfg.TrainOnStart, cfg.Corpora)
	}
	if cfg.BotName != "Chatterbot" {
		t.Errorf("Expected bot name Chatterbot, got %q", cfg.BotName)
	}
	if cfg.Env != "development" {
		t.Errorf("Expected env development, got %q", cfg.Env)
	}
}

func TestLoad_DebugForcesDebugLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != zapcore.DebugLevel {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/chatbot")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorageBackend != StoragePostgres {
		t.Errorf("Expected postgres storage, got %q", cfg.StorageBackend)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"redis without url", map[string]string{"STORAGE_BACKEND": "redis"}},
		{"postgres without url", map[string]string{"STORAGE_BACKEND": "postgres"}},
		{"threshold out of range", map[string]string{"MAXIMUM_SIMILARITY_THRESHOLD": "1.5"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
