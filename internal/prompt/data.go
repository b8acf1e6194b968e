package prompt

// RankerData is what the ranker template sees.
type RankerData struct {
	Query    string
	Articles []RankerArticle
}

// RankerArticle is one corpus entry as previewed to the ranker.
type RankerArticle struct {
	Title       string
	PublishDate string
	Source      string
	Summary     string
	Topics      string
	Preview     string
}

// AnswerData is what the answer template sees.
type AnswerData struct {
	Query    string
	Articles []AnswerArticle
}

// AnswerArticle carries the full text of one selected article.
type AnswerArticle struct {
	Title       string
	PublishDate string
	Source      string
	Content     string
}

// FallbackData is what the general-knowledge fallback template sees.
type FallbackData struct {
	Query string
}

// Check compiles text and executes it once against data, so a template that
// references an unknown field fails at startup rather than on every request.
func Check(name, text string, data any) error {
	tmpl, err := Parse(name, text, "")
	if err != nil {
		return err
	}
	_, err = Render(tmpl, data)
	return err
}

// SampleRankerData fills every field the ranker template can use.
func SampleRankerData() RankerData {
	return RankerData{
		Query: "How did solar output change?",
		Articles: []RankerArticle{{
			Title:       "Grid Outlook",
			PublishDate: "2024-03-01",
			Source:      "Energy Weekly",
			Summary:     "Quarterly grid figures.",
			Topics:      "solar, storage",
			Preview:     "Solar output rose 12%...",
		}},
	}
}

// SampleAnswerData fills every field the answer template can use.
func SampleAnswerData() AnswerData {
	return AnswerData{
		Query: "How did solar output change?",
		Articles: []AnswerArticle{{
			Title:       "Grid Outlook",
			PublishDate: "2024-03-01",
			Source:      "Energy Weekly",
			Content:     "Solar output rose 12% while storage lagged.",
		}},
	}
}

// SampleFallbackData fills every field the fallback template can use.
func SampleFallbackData() FallbackData {
	return FallbackData{Query: "How did solar output change?"}
}
