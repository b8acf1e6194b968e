package usecase

import (
	"strings"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/ports"
	"ArticlesChat/internal/prompt"
)

const defaultRankerPrompt = `You pick source articles for a question-answering assistant.
Below are previews of every available article. Choose the ones that help answer the question.

Question: {{.Query}}

Articles:
{{range .Articles}}---
Title: {{.Title}}
{{- if .PublishDate}}
Published: {{.PublishDate}}{{end}}
{{- if .Source}}
Source: {{.Source}}{{end}}
{{- if .Topics}}
Topics: {{.Topics}}{{end}}
{{- if .Summary}}
Summary: {{.Summary}}{{end}}
Preview: {{.Preview}}
{{end}}---

Reply with a JSON array holding the exact titles of the relevant articles, e.g. ["First title", "Second title"].
Reply with [] if none of them apply. Output the array only, without markdown, code fences or commentary.`

const defaultAnswerPrompt = `Answer the user's question using the articles below.

Rules:
- Ground the answer in the article text first.
- If the articles do not cover the question well enough, say so plainly.
- Do not add facts, figures or sources that the articles do not support.
- Keep a neutral tone and mention the article titles you rely on.

{{range .Articles}}=== {{.Title}}{{if .PublishDate}} ({{.PublishDate}}){{end}}{{if .Source}} [{{.Source}}]{{end}}
{{.Content}}

{{end}}Question: {{.Query}}`

func buildRankerData(query string, corpus []domain.Article, normalizer ports.TextNormalizer, previewChars int) prompt.RankerData {
	data := prompt.RankerData{Query: query, Articles: make([]prompt.RankerArticle, 0, len(corpus))}
	for _, article := range corpus {
		data.Articles = append(data.Articles, prompt.RankerArticle{
			Title:       article.Title,
			PublishDate: article.PublishDate,
			Source:      article.Source,
			Summary:     article.Summary,
			Topics:      strings.Join(article.Topics, ", "),
			Preview:     prompt.Preview(normalize(normalizer, article.Content), previewChars),
		})
	}
	return data
}

func buildAnswerData(query string, selected []domain.Article, normalizer ports.TextNormalizer) prompt.AnswerData {
	data := prompt.AnswerData{Query: query, Articles: make([]prompt.AnswerArticle, 0, len(selected))}
	for _, article := range selected {
		data.Articles = append(data.Articles, prompt.AnswerArticle{
			Title:       article.Title,
			PublishDate: article.PublishDate,
			Source:      article.Source,
			Content:     normalize(normalizer, article.Content),
		})
	}
	return data
}

func normalize(normalizer ports.TextNormalizer, content string) string {
	if normalizer == nil {
		return content
	}
	return normalizer.PlainText(content)
}
