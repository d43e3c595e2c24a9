package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var promptFS embed.FS

// Loader holds the embedded prompt templates.
type Loader struct {
	templates map[string]string
}

// NewLoader loads all markdown prompt templates from the embedded filesystem.
func NewLoader() (*Loader, error) {
	loader := &Loader{templates: make(map[string]string)}

	entries, err := promptFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read prompts directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFS.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", entry.Name(), err)
		}
		loader.templates[strings.TrimSuffix(entry.Name(), ".md")] = string(content)
	}
	return loader, nil
}

// Get returns a prompt template by name.
func (l *Loader) Get(name string) (string, error) {
	template, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	return template, nil
}

// Render substitutes {{Key}} placeholders in the named template.
func (l *Loader) Render(name string, variables map[string]string) (string, error) {
	content, err := l.Get(name)
	if err != nil {
		return "", err
	}
	for key, value := range variables {
		content = strings.ReplaceAll(content, fmt.Sprintf("{{%s}}", key), value)
	}
	return content, nil
}
