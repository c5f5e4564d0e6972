// Package catalog holds the static set of intents the assistant recognizes.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"assistant/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var builtin []byte

// ErrInvalidCatalog is returned when a catalog file breaks a structural rule
var ErrInvalidCatalog = errors.New("invalid intent catalog")

type catalogFile struct {
	Intents []model.Intent `yaml:"intents"`
}

// Catalog is an immutable, ordered list of intents
type Catalog struct {
	intents []model.Intent
	index   map[string]int
}

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(builtin)
}

// Load reads a catalog from path, or the built-in one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Intents) == 0 {
		return nil, fmt.Errorf("%w: no intents defined", ErrInvalidCatalog)
	}

	c := &Catalog{
		intents: make([]model.Intent, 0, len(file.Intents)),
		index:   make(map[string]int, len(file.Intents)),
	}
	for i, intent := range file.Intents {
		intent.Name = strings.TrimSpace(intent.Name)
		if intent.Name == "" {
			return nil, fmt.Errorf("%w: intent #%d has no name", ErrInvalidCatalog, i)
		}
		if _, dup := c.index[intent.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate intent %q", ErrInvalidCatalog, intent.Name)
		}
		phrases := make([]string, 0, len(intent.Phrases))
		for _, p := range intent.Phrases {
			if p = strings.TrimSpace(p); p != "" {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) == 0 {
			return nil, fmt.Errorf("%w: intent %q has no phrases", ErrInvalidCatalog, intent.Name)
		}
		intent.Phrases = phrases
		c.index[intent.Name] = len(c.intents)
		c.intents = append(c.intents, intent)
	}
	return c, nil
}

// Intents returns the intents in declaration order
func (c *Catalog) Intents() []model.Intent {
	out := make([]model.Intent, len(c.intents))
	copy(out, c.intents)
	return out
}

// Lookup finds an intent by name
func (c *Catalog) Lookup(name string) (model.Intent, bool) {
	i, ok := c.index[name]
	if !ok {
		return model.Intent{}, false
	}
	return c.intents[i], true
}

// Len returns the number of intents
func (c *Catalog) Len() int {
	return len(c.intents)
}

// PhraseCount returns the total number of example phrases
func (c *Catalog) PhraseCount() int {
	n := 0
	for _, intent := range c.intents {
		n += len(intent.Phrases)
	}
	return n
}

// Hash fingerprints the phrases together with the embedding model name.
// Vectors cached under one hash are only valid for that exact corpus.
func (c *Catalog) Hash(embeddingModel string) string {
	h := sha256.New()
	h.Write([]byte(embeddingModel))
	for _, intent := range c.intents {
		h.Write([]byte{0})
		h.Write([]byte(intent.Name))
		for _, p := range intent.Phrases {
			h.Write([]byte{1})
			h.Write([]byte(p))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
