package healthguard

import (
	"fmt"
	"maps"
	"time"
)

// Disease identifies one of the supported risk models.
type Disease string

const (
	// DiseaseDiabetes is the 8-feature diabetes model.
	DiseaseDiabetes Disease = "diabetes"
	// DiseaseCardio is the 13-feature cardiovascular model.
	DiseaseCardio Disease = "cardio"
)

// Diseases lists the supported models in menu order.
func Diseases() []Disease {
	return []Disease{DiseaseDiabetes, DiseaseCardio}
}

const (
	// DefaultFallback is returned by the matcher when no key is similar enough.
	DefaultFallback = "I don't have information on that."
	// DefaultMinScore is the similarity a key needs to be used as the answer.
	DefaultMinScore = 60.0
)

// ModelConfig names the artifact pair of one disease inside the artifact store.
type ModelConfig struct {
	Classifier string `json:"classifier"`
	Scaler     string `json:"scaler"`
}

// S3Config configures the s3 artifact store.
type S3Config struct {
	Endpoint     string `json:"endpoint"`
	Region       string `json:"region"`
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// StoreConfig selects where artifacts are read from.
type StoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

// ChatConfig wraps the knowledge base and matcher settings.
type ChatConfig struct {
	KnowledgeBase  string   `json:"knowledgeBase"`
	TokenizerPath  string   `json:"tokenizerPath"`
	MinScore       *float64 `json:"minScore,omitempty"`
	Fallback       string   `json:"fallback"`
	MemoSize       int      `json:"memoSize"`
	MemoTTLSeconds int      `json:"memoTtlSeconds"`
}

// Score returns a pointer to v for optional threshold fields.
func Score(v float64) *float64 {
	return &v
}

// Threshold returns the configured match threshold, or the default when unset.
func (c ChatConfig) Threshold() float64 {
	if c.MinScore == nil {
		return DefaultMinScore
	}
	return *c.MinScore
}

// MemoTTL returns the answer memo lifetime.
func (c ChatConfig) MemoTTL() time.Duration {
	return time.Duration(c.MemoTTLSeconds) * time.Second
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Store     StoreConfig             `json:"store"`
	Models    map[Disease]ModelConfig `json:"models"`
	OrtDLL    string                  `json:"ortDll"`
	Chat      ChatConfig              `json:"chat"`
	CacheSize int                     `json:"cacheSize"`
	ReportDir string                  `json:"reportDir"`
	LogLevel  string                  `json:"logLevel"`
}

// Clone returns a copy of c that shares no map or pointer with it.
func (c Config) Clone() Config {
	out := c
	out.Models = maps.Clone(c.Models)
	if c.Chat.MinScore != nil {
		out.Chat.MinScore = Score(*c.Chat.MinScore)
	}
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "local"
	}
	if c.Store.Type == "local" && c.Store.Dir == "" {
		c.Store.Dir = "models"
	}
	if c.Models == nil {
		c.Models = make(map[Disease]ModelConfig)
	}
	for _, d := range Diseases() {
		m := c.Models[d]
		if m.Classifier == "" {
			m.Classifier = string(d) + "_model.json"
		}
		if m.Scaler == "" {
			m.Scaler = string(d) + "_scaler.json"
		}
		c.Models[d] = m
	}
	if c.Chat.KnowledgeBase == "" {
		c.Chat.KnowledgeBase = "knowledge_base/medical_knowledge.md"
	}
	if c.Chat.MinScore == nil {
		c.Chat.MinScore = Score(DefaultMinScore)
	} else if *c.Chat.MinScore > 100 {
		c.Chat.MinScore = Score(100)
	}
	if c.Chat.Fallback == "" {
		c.Chat.Fallback = DefaultFallback
	}
	if c.Chat.MemoSize == 0 {
		c.Chat.MemoSize = 128
	}
	if c.Chat.MemoTTLSeconds == 0 {
		c.Chat.MemoTTLSeconds = 600
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 4
	}
	if c.ReportDir == "" {
		c.ReportDir = "reports"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports settings that cannot be repaired by ApplyDefaults.
func (c Config) Validate() error {
	if c.Chat.MinScore != nil && *c.Chat.MinScore < 0 {
		return fmt.Errorf("chat.minScore must be between 0 and 100, got %v", *c.Chat.MinScore)
	}
	return nil
}

// Model returns the artifact names configured for d.
func (c Config) Model(d Disease) ModelConfig {
	return c.Models[d]
}
