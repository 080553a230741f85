package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsFallbackWithoutAPIKey(t *testing.T) {
	config := &Config{
		Classifier: ClassifierConfig{Provider: "fallback"},
		Storage:    StorageConfig{Provider: "sqlite"},
	}
	assert.NoError(t, config.Validate())
}

func TestValidateRequiresAPIKeyForOpenAI(t *testing.T) {
	config := &Config{
		Classifier: ClassifierConfig{Provider: "openai"},
		Storage:    StorageConfig{Provider: "sqlite"},
	}
	err := config.Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	config.Classifier.APIKey = "sk-test"
	assert.NoError(t, config.Validate())
}

func TestValidateRejectsUnknownProviders(t *testing.T) {
	config := &Config{
		Classifier: ClassifierConfig{Provider: "oracle"},
		Storage:    StorageConfig{Provider: "sqlite"},
	}
	assert.Error(t, config.Validate())

	config = &Config{
		Classifier: ClassifierConfig{Provider: "fallback"},
		Storage:    StorageConfig{Provider: "cassandra"},
	}
	assert.Error(t, config.Validate())
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := `{
		"classifier": {"provider": "fallback"},
		"storage": {"provider": "sqlite", "config": {"db_path": "./test.db"}},
		"graph": {"max_nodes": 500}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	config, err := LoadConfigFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "fallback", config.Classifier.Provider)
	assert.Equal(t, "sqlite", config.Storage.Provider)
	assert.Equal(t, "./test.db", strSetting(config.Storage.Config, "db_path"))
	assert.Equal(t, 500, config.Graph.MaxNodes)
}

func TestLoadConfigFromJSONMissingFile(t *testing.T) {
	_, err := LoadConfigFromJSON(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestProcessOptionDefaults(t *testing.T) {
	options := applyProcessOptions(nil)
	assert.Equal(t, "default", options.UserID)
	assert.Equal(t, "VoiceMind", options.SourceAgent)
	assert.True(t, options.Timestamp.IsZero())
}

func TestProcessOptionsApply(t *testing.T) {
	options := applyProcessOptions([]ProcessOption{
		WithUserID("user_001"),
		WithSourceAgent("ExecutiveAssistant"),
		WithCategory("work"),
		WithContext(map[string]interface{}{"recent_theme": "launch"}),
	})
	assert.Equal(t, "user_001", options.UserID)
	assert.Equal(t, "ExecutiveAssistant", options.SourceAgent)
	assert.Equal(t, "work", options.Category)
	assert.Equal(t, "launch", options.Context["recent_theme"])
}

func TestSettingReaders(t *testing.T) {
	config := map[string]interface{}{
		"host": "db.local",
		"port": float64(5432), // JSON numbers decode as float64
	}
	assert.Equal(t, "db.local", strSetting(config, "host"))
	assert.Equal(t, 5432, intSetting(config, "port"))
	assert.Equal(t, "", strSetting(config, "absent"))
	assert.Equal(t, 0, intSetting(config, "absent"))
}
