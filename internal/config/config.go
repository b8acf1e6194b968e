package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ArticlesChat/internal/prompt"
)

const (
	configPathEnv     = "ARTICLES_CHAT_CONFIG"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIBaseURLEnv  = "OPENAI_BASE_URL"
	rankerModelEnv    = "RANKER_MODEL"
	answerModelEnv    = "ANSWER_MODEL"
	corpusPathEnv     = "ARTICLES_CORPUS_PATH"
	serverAddrEnv     = "ARTICLES_CHAT_ADDR"
	logLevelEnv       = "LOG_LEVEL"
	fallbackPolicyEnv = "FALLBACK_POLICY"

	// FallbackGeneral answers from general knowledge when nothing matches.
	FallbackGeneral = "general"
	// FallbackReport fails the request and lists the available titles.
	FallbackReport = "report"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Ranker   ModelConfig    `yaml:"ranker"`
	Answer   ModelConfig    `yaml:"answer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CorpusConfig points at the JSON article document.
type CorpusConfig struct {
	Path            string  `yaml:"path"`
	PartitionPrefix *string `yaml:"partitionPrefix"`
	StripHTML       *bool   `yaml:"stripHTML"`
}

// Prefix returns the key prefix that marks corpus partitions. Empty accepts every array-valued key.
func (c CorpusConfig) Prefix() string {
	if c.PartitionPrefix == nil {
		return ""
	}
	return *c.PartitionPrefix
}

// StripHTMLEnabled reports whether article bodies are reduced to text before prompting.
func (c CorpusConfig) StripHTMLEnabled() bool {
	return c.StripHTML == nil || *c.StripHTML
}

// ModelConfig defines how one pipeline stage talks to an OpenAI-compatible API.
type ModelConfig struct {
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	Temperature    *float64      `yaml:"temperature"`
	MaxTokens      int           `yaml:"maxTokens"`
	Timeout        time.Duration `yaml:"timeout"`
	SystemPrompt   string        `yaml:"systemPrompt"`
	PromptTemplate string        `yaml:"promptTemplate"`
	IncludeHistory *bool         `yaml:"includeHistory"`
}

// TemperatureValue returns the configured sampling temperature.
func (m ModelConfig) TemperatureValue() float64 {
	if m.Temperature == nil {
		return 0
	}
	return *m.Temperature
}

// HistoryEnabled reports whether conversation history is forwarded to the model.
func (m ModelConfig) HistoryEnabled() bool {
	return m.IncludeHistory == nil || *m.IncludeHistory
}

// PipelineConfig tunes the retrieval-and-answer flow.
type PipelineConfig struct {
	PreviewChars   int     `yaml:"previewChars"`
	FallbackPolicy string  `yaml:"fallbackPolicy"`
	FallbackPrompt string  `yaml:"fallbackPrompt"`
	FetchAllPhrase *string `yaml:"fetchAllPhrase"`
}

// FetchAll returns the phrase that lists the corpus instead of asking the models. Empty disables it.
func (p PipelineConfig) FetchAll() string {
	if p.FetchAllPhrase == nil {
		return ""
	}
	return *p.FetchAllPhrase
}

// LoggingConfig selects slog level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration from ARTICLES_CHAT_CONFIG (if set) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if non-empty) and applies environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Pipeline.FallbackPolicy {
	case FallbackGeneral, FallbackReport:
	default:
		return fmt.Errorf("unknown fallback policy %q", c.Pipeline.FallbackPolicy)
	}
	if c.Pipeline.PreviewChars <= 0 {
		return fmt.Errorf("pipeline.previewChars must be positive, got %d", c.Pipeline.PreviewChars)
	}
	if strings.TrimSpace(c.Corpus.Path) == "" {
		return fmt.Errorf("corpus.path is required")
	}

	for name, stage := range map[string]ModelConfig{"ranker": c.Ranker, "answer": c.Answer} {
		if stage.Model == "" {
			return fmt.Errorf("%s.model is required", name)
		}
		if stage.Timeout <= 0 {
			return fmt.Errorf("%s.timeout must be positive", name)
		}
	}

	templates := []struct {
		field  string
		text   string
		sample any
	}{
		{"ranker.promptTemplate", c.Ranker.PromptTemplate, prompt.SampleRankerData()},
		{"answer.promptTemplate", c.Answer.PromptTemplate, prompt.SampleAnswerData()},
		{"pipeline.fallbackPrompt", c.Pipeline.FallbackPrompt, prompt.SampleFallbackData()},
	}
	for _, t := range templates {
		if strings.TrimSpace(t.text) == "" {
			continue
		}
		if err := prompt.Check(t.field, t.text, t.sample); err != nil {
			return fmt.Errorf("%s: %w", t.field, err)
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		if c.Ranker.APIKey == "" {
			c.Ranker.APIKey = v
		}
		if c.Answer.APIKey == "" {
			c.Answer.APIKey = v
		}
	}

	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.Ranker.BaseURL = v
		c.Answer.BaseURL = v
	}

	if v := os.Getenv(rankerModelEnv); v != "" {
		c.Ranker.Model = v
	}

	if v := os.Getenv(answerModelEnv); v != "" {
		c.Answer.Model = v
	}

	if v := os.Getenv(corpusPathEnv); v != "" {
		c.Corpus.Path = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(fallbackPolicyEnv); v != "" {
		c.Pipeline.FallbackPolicy = strings.ToLower(strings.TrimSpace(v))
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Corpus.Path != "" {
		base.Corpus.Path = override.Corpus.Path
	}
	if override.Corpus.PartitionPrefix != nil {
		base.Corpus.PartitionPrefix = override.Corpus.PartitionPrefix
	}
	if override.Corpus.StripHTML != nil {
		base.Corpus.StripHTML = override.Corpus.StripHTML
	}

	base.Ranker = mergeModel(base.Ranker, override.Ranker)
	base.Answer = mergeModel(base.Answer, override.Answer)

	if override.Pipeline.PreviewChars > 0 {
		base.Pipeline.PreviewChars = override.Pipeline.PreviewChars
	}
	if override.Pipeline.FallbackPolicy != "" {
		base.Pipeline.FallbackPolicy = strings.ToLower(override.Pipeline.FallbackPolicy)
	}
	if override.Pipeline.FallbackPrompt != "" {
		base.Pipeline.FallbackPrompt = override.Pipeline.FallbackPrompt
	}
	if override.Pipeline.FetchAllPhrase != nil {
		base.Pipeline.FetchAllPhrase = override.Pipeline.FetchAllPhrase
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func mergeModel(base, override ModelConfig) ModelConfig {
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.MaxTokens > 0 {
		base.MaxTokens = override.MaxTokens
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.SystemPrompt != "" {
		base.SystemPrompt = override.SystemPrompt
	}
	if override.PromptTemplate != "" {
		base.PromptTemplate = override.PromptTemplate
	}
	if override.IncludeHistory != nil {
		base.IncludeHistory = override.IncludeHistory
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Corpus: CorpusConfig{
			Path:            "data/articles/article.json",
			PartitionPrefix: stringPtr("articles_"),
		},
		Ranker: ModelConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: float64Ptr(0.7),
			Timeout:     60 * time.Second,
		},
		Answer: ModelConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: float64Ptr(0.7),
			Timeout:     120 * time.Second,
		},
		Pipeline: PipelineConfig{
			PreviewChars:   500,
			FallbackPolicy: FallbackGeneral,
			FetchAllPhrase: stringPtr("fetch all articles"),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
