package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trigger maps a title phrase to a topic label.
type Trigger struct {
	Phrase string `json:"phrase" yaml:"phrase"`
	Label  string `json:"label" yaml:"label"`
}

// Rules is the keyword filter and the ordered trigger list used by the classifier.
type Rules struct {
	Language string    `json:"language" yaml:"language"`
	Keywords []string  `json:"keywords" yaml:"keywords"`
	Triggers []Trigger `json:"triggers" yaml:"triggers"`
}

// DefaultRules returns the built-in Portuguese rule set.
func DefaultRules() Rules {
	return Rules{
		Language: "pt",
		Keywords: []string{
			"avanço", "inovação", "crescimento", "descoberta", "sucesso",
			"melhoria", "progresso", "impacto", "tendência", "revolução",
		},
		Triggers: []Trigger{
			{Phrase: "inteligência artificial", Label: "Últimas inovações em inteligência artificial"},
			{Phrase: "computação quântica", Label: "Tendências emergentes em computação quântica"},
			{Phrase: "5g", Label: "Impacto da tecnologia 5G na sociedade"},
		},
	}
}

// normalize lower-cases phrases and drops blanks while keeping trigger order.
// Labels are left untouched.
func (r Rules) normalize() Rules {
	out := Rules{
		Language: strings.ToLower(strings.TrimSpace(r.Language)),
		Keywords: make([]string, 0, len(r.Keywords)),
		Triggers: make([]Trigger, 0, len(r.Triggers)),
	}
	for _, kw := range r.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out.Keywords = append(out.Keywords, kw)
		}
	}
	for _, t := range r.Triggers {
		phrase := strings.ToLower(strings.TrimSpace(t.Phrase))
		if phrase == "" {
			continue
		}
		out.Triggers = append(out.Triggers, Trigger{Phrase: phrase, Label: t.Label})
	}
	return out
}

// validate checks that a loaded rule set can filter and label.
func (r Rules) validate() error {
	if len(r.Keywords) == 0 {
		return errors.New("rules contain no keywords")
	}
	for i, t := range r.Triggers {
		if strings.TrimSpace(t.Label) == "" {
			return fmt.Errorf("triggers[%d]: label is required for phrase %q", i, t.Phrase)
		}
	}
	return nil
}

// LoadRules reads a YAML or JSON rules file. Environment references are expanded.
func LoadRules(path string) (Rules, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Rules{}, errors.New("rules file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open rules file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	rules, err := parseRules([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
	if err != nil {
		return Rules{}, err
	}

	rules = rules.normalize()
	if err := rules.validate(); err != nil {
		return Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// parseRules attempts to decode the rules file content.
func parseRules(data []byte, ext string) (Rules, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var rules Rules
		err := d.fn(data, &rules)
		if err == nil {
			return rules, nil
		}
		lastErr = fmt.Errorf("%s: %w", d.name, err)
	}

	if lastErr != nil {
		return Rules{}, fmt.Errorf("rules file format not recognized (expected YAML or JSON): %w", lastErr)
	}
	return Rules{}, errors.New("rules file format not recognized (expected YAML or JSON)")
}
