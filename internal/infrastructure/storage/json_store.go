package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/ports"
)

// JSONStore reads the article corpus from a single JSON document on disk.
// The document is re-read on every Load; nothing is cached.
type JSONStore struct {
	path   string
	prefix string
	logger *slog.Logger
}

var _ ports.ArticleStore = (*JSONStore)(nil)

// NewJSONStore wires the corpus location. Keys starting with partitionPrefix hold
// article arrays; an empty prefix accepts every array-valued key.
func NewJSONStore(path, partitionPrefix string, log *slog.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		prefix: partitionPrefix,
		logger: log,
	}
}

// Path returns the backing document location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and flattens every recognized partition in document order.
func (s *JSONStore) Load(ctx context.Context) ([]domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", domain.ErrDataUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrDataUnavailable, s.path, err)
	}

	articles, err := decodeCorpus(raw, s.prefix)
	if err != nil {
		return nil, err
	}

	articles, dropped := dropDuplicateTitles(articles)
	if len(dropped) > 0 && s.logger != nil {
		s.logger.Warn("duplicate article titles dropped", "path", s.path, "count", len(dropped), "titles", dropped)
	}

	if len(articles) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyCorpus, s.path)
	}

	if s.logger != nil {
		s.logger.Debug("corpus loaded", "path", s.path, "articles", len(articles))
	}
	return articles, nil
}

func decodeCorpus(raw []byte, prefix string) ([]domain.Article, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataCorrupt, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top-level value must be an object", domain.ErrDataCorrupt)
	}

	var articles []domain.Article
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataCorrupt, err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", domain.ErrDataCorrupt, key, err)
		}

		isArray := bytes.HasPrefix(bytes.TrimSpace(value), []byte("["))
		if prefix == "" {
			if !isArray {
				continue
			}
		} else {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			if !isArray {
				return nil, fmt.Errorf("%w: partition %q is not an array", domain.ErrDataCorrupt, key)
			}
		}

		partition, err := decodePartition(key, value)
		if err != nil {
			return nil, err
		}
		articles = append(articles, partition...)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataCorrupt, err)
	}
	if _, err := dec.Token(); err == nil {
		return nil, fmt.Errorf("%w: unexpected data after top-level object", domain.ErrDataCorrupt)
	}

	return articles, nil
}

func decodePartition(key string, value json.RawMessage) ([]domain.Article, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(value, &elements); err != nil {
		return nil, fmt.Errorf("%w: partition %q: %v", domain.ErrDataCorrupt, key, err)
	}

	articles := make([]domain.Article, 0, len(elements))
	for i, element := range elements {
		article, err := decodeArticle(element)
		if err != nil {
			return nil, fmt.Errorf("%w: partition %q element %d: %v", domain.ErrDataCorrupt, key, i, err)
		}
		articles = append(articles, article)
	}
	return articles, nil
}

func decodeArticle(element json.RawMessage) (domain.Article, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil || fields == nil {
		return domain.Article{}, errors.New("element is not an object")
	}

	var title, content *string
	if err := json.Unmarshal(fields["title"], &title); err != nil || title == nil || strings.TrimSpace(*title) == "" {
		return domain.Article{}, errors.New("missing string title")
	}
	if err := json.Unmarshal(fields["content"], &content); err != nil || content == nil {
		return domain.Article{}, errors.New("missing string content")
	}

	var article domain.Article
	if err := json.Unmarshal(element, &article); err != nil {
		return domain.Article{}, fmt.Errorf("invalid optional field: %v", err)
	}
	article.Title = strings.TrimSpace(article.Title)
	return article, nil
}

func dropDuplicateTitles(articles []domain.Article) ([]domain.Article, []string) {
	seen := make(map[string]struct{}, len(articles))
	kept := articles[:0]
	var dropped []string
	for _, article := range articles {
		if _, ok := seen[article.Title]; ok {
			dropped = append(dropped, article.Title)
			continue
		}
		seen[article.Title] = struct{}{}
		kept = append(kept, article)
	}
	return kept, dropped
}
