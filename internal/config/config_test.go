package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile("")

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/articles/article.json", cfg.Corpus.Path)
	assert.Equal(t, "articles_", cfg.Corpus.Prefix())
	assert.True(t, cfg.Corpus.StripHTMLEnabled())
	assert.Equal(t, 500, cfg.Pipeline.PreviewChars)
	assert.Equal(t, FallbackGeneral, cfg.Pipeline.FallbackPolicy)
	assert.Equal(t, "gpt-4o", cfg.Ranker.Model)
	assert.InDelta(t, 0.7, cfg.Answer.TemperatureValue(), 1e-9)
	assert.True(t, cfg.Ranker.HistoryEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadFileMergesYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
corpus:
  path: /srv/articles.json
  stripHTML: false
ranker:
  model: gpt-4o-mini
  temperature: 0
  timeout: 15s
  includeHistory: false
answer:
  model: o1
  temperature: 1
pipeline:
  fallbackPolicy: REPORT
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := LoadFile(path)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/srv/articles.json", cfg.Corpus.Path)
	assert.False(t, cfg.Corpus.StripHTMLEnabled())
	assert.Equal(t, "gpt-4o-mini", cfg.Ranker.Model)
	assert.Equal(t, 0.0, cfg.Ranker.TemperatureValue())
	assert.Equal(t, 15*time.Second, cfg.Ranker.Timeout)
	assert.False(t, cfg.Ranker.HistoryEnabled())
	assert.Equal(t, "o1", cfg.Answer.Model)
	assert.Equal(t, 120*time.Second, cfg.Answer.Timeout)
	assert.Equal(t, FallbackReport, cfg.Pipeline.FallbackPolicy)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "articles_", cfg.Corpus.Prefix())
}

func TestLoadFileKeepsExplicitEmptyStrings(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
corpus:
  partitionPrefix: ""
pipeline:
  fetchAllPhrase: ""
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := LoadFile(path)

	assert.Equal(t, "", cfg.Corpus.Prefix())
	assert.Equal(t, "", cfg.Pipeline.FetchAll())
	assert.Equal(t, "fetch all articles", defaultConfig().Pipeline.FetchAll())
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(answerModelEnv, "gpt-4.1")
	t.Setenv(corpusPathEnv, "/tmp/corpus.json")
	t.Setenv(fallbackPolicyEnv, "report")

	cfg := LoadFile("")

	assert.Equal(t, "sk-test", cfg.Ranker.APIKey)
	assert.Equal(t, "sk-test", cfg.Answer.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.Answer.Model)
	assert.Equal(t, "/tmp/corpus.json", cfg.Corpus.Path)
	assert.Equal(t, FallbackReport, cfg.Pipeline.FallbackPolicy)
}

func TestLoadFileUnreadableFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, defaultConfig().Server.Addr, cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Pipeline.FallbackPolicy = "shrug"
	assert.ErrorContains(t, cfg.Validate(), "unknown fallback policy")

	cfg = defaultConfig()
	cfg.Pipeline.PreviewChars = 0
	assert.ErrorContains(t, cfg.Validate(), "previewChars")

	cfg = defaultConfig()
	cfg.Answer.PromptTemplate = "{{ .Query "
	assert.ErrorContains(t, cfg.Validate(), "answer.promptTemplate")

	cfg = defaultConfig()
	cfg.Ranker.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "ranker.timeout")
}

func TestValidatePromptTemplates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "custom templates using known fields",
			mutate: func(c *Config) {
				c.Ranker.PromptTemplate = "{{.Query}}{{range .Articles}}{{.Title}} {{.Preview}}{{end}}"
				c.Answer.PromptTemplate = "{{.Query}}{{range .Articles}}{{.Content}}{{end}}"
				c.Pipeline.FallbackPrompt = "No match for {{.Query}}"
			},
		},
		{
			name:    "ranker field that does not exist",
			mutate:  func(c *Config) { c.Ranker.PromptTemplate = "{{range .Articles}}{{.Body}}{{end}}" },
			wantErr: "ranker.promptTemplate",
		},
		{
			name:    "answer field that does not exist",
			mutate:  func(c *Config) { c.Answer.PromptTemplate = "{{.Question}}" },
			wantErr: "answer.promptTemplate",
		},
		{
			name:    "fallback prompt that does not parse",
			mutate:  func(c *Config) { c.Pipeline.FallbackPrompt = "{{ .Query " },
			wantErr: "pipeline.fallbackPrompt",
		},
		{
			name:    "fallback prompt field that does not exist",
			mutate:  func(c *Config) { c.Pipeline.FallbackPrompt = "{{.Articles}}" },
			wantErr: "pipeline.fallbackPrompt",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		openAIAPIKeyEnv, openAIBaseURLEnv, rankerModelEnv, answerModelEnv,
		corpusPathEnv, serverAddrEnv, logLevelEnv, fallbackPolicyEnv,
	} {
		t.Setenv(key, "")
	}
}
