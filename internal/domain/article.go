package domain

import (
	"strings"

	"github.com/google/uuid"
)

// articleNamespace seeds deterministic reference identifiers.
var articleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("articleschat/article"))

// Article is a single entry of the on-disk corpus.
type Article struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string   `json:"title" yaml:"title"`
	Content     string   `json:"content" yaml:"content"`
	PublishDate string   `json:"publishDate,omitempty" yaml:"publishDate,omitempty"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Topics      []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

// WithResolvedID returns a copy that carries an identifier. Existing ids are kept;
// missing ones are derived from title and content so the same article always
// resolves to the same id.
func (a Article) WithResolvedID() Article {
	if strings.TrimSpace(a.ID) != "" {
		return a
	}
	a.ID = DeriveArticleID(a.Title, a.Content)
	return a
}

// DeriveArticleID builds a UUIDv5 from the article title and body.
func DeriveArticleID(title, content string) string {
	return uuid.NewSHA1(articleNamespace, []byte(title+"\x00"+content)).String()
}

// Titles lists article titles in corpus order.
func Titles(articles []Article) []string {
	titles := make([]string, 0, len(articles))
	for _, article := range articles {
		titles = append(titles, article.Title)
	}
	return titles
}

// ResolveIDs assigns identifiers to every article lacking one.
func ResolveIDs(articles []Article) []Article {
	resolved := make([]Article, 0, len(articles))
	for _, article := range articles {
		resolved = append(resolved, article.WithResolvedID())
	}
	return resolved
}
