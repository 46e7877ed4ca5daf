package healthguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Store.Type)
	require.Equal(t, "models", cfg.Store.Dir)
	require.Equal(t, ModelConfig{Classifier: "diabetes_model.json", Scaler: "diabetes_scaler.json"}, cfg.Model(DiseaseDiabetes))
	require.Equal(t, ModelConfig{Classifier: "cardio_model.json", Scaler: "cardio_scaler.json"}, cfg.Model(DiseaseCardio))
	require.Equal(t, DefaultMinScore, cfg.Chat.Threshold())
	require.Equal(t, DefaultFallback, cfg.Chat.Fallback)
	require.Equal(t, 4, cfg.CacheSize)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_ReadsJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"store": {"type": "s3", "s3": {"bucket": "models", "prefix": "v2"}},
		"models": {"cardio": {"classifier": "cardio.onnx"}},
		"chat": {"minScore": 150, "knowledgeBase": "kb.docx"},
		"logLevel": "debug"
	}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "s3", cfg.Store.Type)
	require.Empty(t, cfg.Store.Dir)
	require.Equal(t, "v2", cfg.Store.S3.Prefix)
	require.Equal(t, ModelConfig{Classifier: "cardio.onnx", Scaler: "cardio_scaler.json"}, cfg.Model(DiseaseCardio))
	require.Equal(t, 100.0, cfg.Chat.Threshold())
	require.Equal(t, "kb.docx", cfg.Chat.KnowledgeBase)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"store": {"dir": "from-json"}, "logLevel": "warn"}`)
	writeFile(t, dir, ".env", "HEALTHGUARD_MODEL_DIR=from-dotenv\nHEALTHGUARD_KNOWLEDGE_BASE=kb.txt\nHEALTHGUARD_LOG_LEVEL=error\n")
	t.Setenv("HEALTHGUARD_LOG_LEVEL", "debug")
	t.Setenv("HEALTHGUARD_MIN_SCORE", "72.5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Store.Dir)
	require.Equal(t, "kb.txt", cfg.Chat.KnowledgeBase)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 72.5, cfg.Chat.Threshold())
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(writeFile(t, dir, "bad.json", "{"))
	require.ErrorContains(t, err, "decode config")

	t.Setenv("HEALTHGUARD_MIN_SCORE", "high")
	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "HEALTHGUARD_MIN_SCORE")
}

func TestLoadConfig_ZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(writeFile(t, dir, "config.json", `{"chat": {"minScore": 0}}`))
	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.Chat.Threshold())

	t.Setenv("HEALTHGUARD_MIN_SCORE", "0")
	cfg, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	require.Equal(t, 0.0, cfg.Chat.Threshold())

	t.Setenv("HEALTHGUARD_MIN_SCORE", "-5")
	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	require.ErrorContains(t, err, "chat.minScore")
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Config{ReportDir: "out", Chat: ChatConfig{MinScore: Score(70)}}
	require.NoError(t, WriteConfig(path, cfg, false))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "out", loaded.ReportDir)
	require.Equal(t, 70.0, loaded.Chat.Threshold())
	require.Equal(t, "models", loaded.Store.Dir)
}

func TestWriteConfig_KeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"reportDir":"mine"}`), 0o644))

	err := WriteConfig(path, Config{}, false)
	require.ErrorIs(t, err, os.ErrExist)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"reportDir":"mine"}`, string(data))

	require.NoError(t, WriteConfig(path, Config{ReportDir: "theirs"}, true))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "theirs", loaded.ReportDir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestConfig_CloneIsDeep(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	clone := cfg.Clone()
	clone.Models[DiseaseCardio] = ModelConfig{Classifier: "x", Scaler: "y"}
	*clone.Chat.MinScore = 5
	require.Equal(t, "cardio_model.json", cfg.Model(DiseaseCardio).Classifier)
	require.Equal(t, DefaultMinScore, cfg.Chat.Threshold())

	require.Nil(t, Config{}.Clone().Models)
}
