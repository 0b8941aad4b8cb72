package topics

import (
	"strings"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

// Classifier keeps articles carrying a positive keyword and labels each with a topic.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules Rules
}

// NewClassifier builds a classifier for the given rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules.normalize()}
}

// NewDefaultClassifier builds a classifier with the built-in rules.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// Rules returns the normalized rules in use.
func (c *Classifier) Rules() Rules {
	return c.rules
}

// Classify filters articles to those matching a keyword and derives one topic per retained article.
// Matching is a case-insensitive substring test, so a keyword inside a longer word counts.
func (c *Classifier) Classify(articles []domain.Article) domain.TopicResult {
	result := domain.NewTopicResult(len(articles))
	for _, a := range articles {
		if !c.IsPositive(a) {
			continue
		}
		result.Add(a, c.Topic(a))
	}
	return result
}

// IsPositive reports whether the title or description contains any keyword.
func (c *Classifier) IsPositive(a domain.Article) bool {
	text := strings.ToLower(a.Title + " " + a.DescriptionText())
	for _, kw := range c.rules.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Topic returns the label of the first trigger found in the title, else the title itself.
func (c *Classifier) Topic(a domain.Article) string {
	title := strings.ToLower(a.Title)
	for _, t := range c.rules.Triggers {
		if strings.Contains(title, t.Phrase) {
			return t.Label
		}
	}
	return a.Title
}
