// Package prompt manages the YAML prompt templates that frame every
// LLM call. Built-in defaults ship in code; files in the prompts
// directory override them by name and can be hot reloaded.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"shellmind/internal/logging"
)

// File is the on-disk YAML shape of one template.
type File struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

// Library holds the parsed templates, keyed by name.
type Library struct {
	mu        sync.RWMutex
	dir       string
	templates map[string]*template.Template
}

// NewLibrary builds a library from the built-in defaults overlaid with
// any YAML files found in dir. A missing or empty dir is fine.
func NewLibrary(dir string) (*Library, error) {
	lib := &Library{
		dir:       dir,
		templates: make(map[string]*template.Template),
	}

	for name, text := range defaults {
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("built-in template %s: %w", name, err)
		}
		lib.templates[name] = tmpl
	}

	if dir != "" {
		if err := lib.loadDir(); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Dir returns the overlay directory.
func (l *Library) Dir() string { return l.dir }

// Names returns the loaded template names.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}

// Render expands the named template with the given data.
func (l *Library) Render(name string, data any) (string, error) {
	l.mu.RLock()
	tmpl, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown prompt template: %s", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (l *Library) loadDir() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read prompts dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isPromptFile(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		if err := l.LoadFile(path); err != nil {
			logging.Prompt("skipping %s: %v", path, err)
		}
	}
	return nil
}

// LoadFile parses one YAML prompt file and installs its template,
// replacing any previous template with the same name.
func (l *Library) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompt file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse prompt file: %w", err)
	}
	if file.Name == "" {
		return fmt.Errorf("prompt file %s missing name", filepath.Base(path))
	}
	if strings.TrimSpace(file.Template) == "" {
		return fmt.Errorf("prompt %s has empty template", file.Name)
	}

	tmpl, err := template.New(file.Name).Parse(file.Template)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", file.Name, err)
	}

	l.mu.Lock()
	l.templates[file.Name] = tmpl
	l.mu.Unlock()

	logging.PromptDebug("loaded template %s from %s", file.Name, filepath.Base(path))
	return nil
}

func isPromptFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
