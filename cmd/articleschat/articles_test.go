package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticlesChat/internal/domain"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ARTICLES_CHAT_CONFIG", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		configPath = ""
		corpusPath = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestArticlesCommandListsCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "articles_a": [{"title": "A", "content": "alpha"}],
	  "articles_b": [{"id": "b-1", "title": "B", "content": "beta"}]
	}`), 0o600))

	out, err := executeRoot(t, "articles", "--corpus", path)
	require.NoError(t, err)

	assert.Contains(t, out, domain.DeriveArticleID("A", "alpha")+"  A\n")
	assert.Contains(t, out, "b-1  B\n")
	assert.Contains(t, out, "2 articles in "+path)
}

func TestArticlesCommandReportsMissingCorpus(t *testing.T) {
	_, err := executeRoot(t, "articles", "--corpus", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
