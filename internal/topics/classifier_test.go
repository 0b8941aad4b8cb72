package topics

import (
	"testing"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func article(title string, description *string) domain.Article {
	return domain.Article{
		Title:       title,
		Description: description,
		URL:         "https://example.com/" + title,
		PublishedAt: "2025-01-01T00:00:00Z",
		Source:      domain.Source{Name: "Example"},
	}
}

func englishClassifier(t *testing.T) *Classifier {
	t.Helper()
	rules, err := LoadRules("testdata/rules_en.yaml")
	require.NoError(t, err)
	return NewClassifier(rules)
}

func TestClassify_BreakthroughInQuantumComputing(t *testing.T) {
	c := englishClassifier(t)
	in := []domain.Article{article("Breakthrough in quantum computing", strPtr("a major advance"))}

	got := c.Classify(in)

	require.Len(t, got.Articles, 1)
	assert.Equal(t, in[0], got.Articles[0])
	assert.Equal(t, []string{"Emerging trends in quantum computing"}, got.Topics)
}

func TestClassify_NoKeywordIsFilteredOut(t *testing.T) {
	c := englishClassifier(t)

	got := c.Classify([]domain.Article{article("Local weather report", nil)})

	assert.NotNil(t, got.Topics)
	assert.NotNil(t, got.Articles)
	assert.Empty(t, got.Topics)
	assert.Empty(t, got.Articles)
}

func TestClassify_EmptyInput(t *testing.T) {
	got := NewDefaultClassifier().Classify(nil)
	assert.Equal(t, domain.TopicResult{Topics: []string{}, Articles: []domain.Article{}}, got)
}

func TestClassify_DefaultPortugueseRules(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name      string
		article   domain.Article
		retained  bool
		wantTopic string
	}{
		{
			name:      "artificial intelligence trigger",
			article:   article("Inteligência Artificial traz AVANÇO na medicina", nil),
			retained:  true,
			wantTopic: "Últimas inovações em inteligência artificial",
		},
		{
			name:      "quantum trigger",
			article:   article("Computação quântica: nova descoberta", nil),
			retained:  true,
			wantTopic: "Tendências emergentes em computação quântica",
		},
		{
			name:      "5g trigger",
			article:   article("Rede 5G chega ao interior", strPtr("crescimento da cobertura")),
			retained:  true,
			wantTopic: "Impacto da tecnologia 5G na sociedade",
		},
		{
			name:      "trigger priority follows rule order",
			article:   article("Inteligência artificial e computação quântica com 5G", strPtr("sucesso")),
			retained:  true,
			wantTopic: "Últimas inovações em inteligência artificial",
		},
		{
			name:      "title fallback",
			article:   article("Startup brasileira", strPtr("Um caso de sucesso")),
			retained:  true,
			wantTopic: "Startup brasileira",
		},
		{
			name:     "trigger without keyword is not retained",
			article:  article("Inteligência artificial regulada", strPtr("novas regras")),
			retained: false,
		},
		{
			name:      "keyword embedded in a longer word still matches",
			article:   article("Impactos econômicos", nil),
			retained:  true,
			wantTopic: "Impactos econômicos",
		},
		{
			name:      "keyword only in description",
			article:   article("Chips", strPtr("Progresso na fabricação")),
			retained:  true,
			wantTopic: "Chips",
		},
		{
			name:     "keyword split across title and description does not match",
			article:  article("avan", strPtr("ço")),
			retained: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify([]domain.Article{tt.article})
			if !tt.retained {
				assert.Empty(t, got.Articles)
				assert.Empty(t, got.Topics)
				return
			}
			require.Len(t, got.Articles, 1)
			require.Len(t, got.Topics, 1)
			assert.Equal(t, tt.wantTopic, got.Topics[0])
		})
	}
}

func TestClassify_PreservesOrderAndKeepsDuplicates(t *testing.T) {
	c := NewDefaultClassifier()
	in := []domain.Article{
		article("Rede 5G: progresso", nil),
		article("Previsão do tempo", nil),
		article("5G e inovação", nil),
		article("Futebol", strPtr("rodada")),
		article("Sucesso de vendas", nil),
	}

	got := c.Classify(in)

	require.Len(t, got.Articles, 3)
	assert.Equal(t, []domain.Article{in[0], in[2], in[4]}, got.Articles)
	assert.Equal(t, []string{
		"Impacto da tecnologia 5G na sociedade",
		"Impacto da tecnologia 5G na sociedade",
		"Sucesso de vendas",
	}, got.Topics)

	entries := got.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, in[4], entries[2].Article)
	assert.Equal(t, "Sucesso de vendas", entries[2].Topic)
}

func TestClassify_IsIdempotentAndIndependentOfBatch(t *testing.T) {
	c := NewDefaultClassifier()
	a := article("Descoberta em baterias", nil)
	b := article("Inteligência artificial: melhoria", nil)

	first := c.Classify([]domain.Article{a, b})
	second := c.Classify([]domain.Article{a, b})
	assert.Equal(t, first, second)

	alone := c.Classify([]domain.Article{b})
	assert.Equal(t, first.Topics[1], alone.Topics[0])
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	c := NewDefaultClassifier()
	in := []domain.Article{article("Avanço", strPtr("texto"))}
	snapshot := []domain.Article{in[0]}

	_ = c.Classify(in)
	assert.Equal(t, snapshot, in)
}
