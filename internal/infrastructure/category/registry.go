// Package category implements CategoryRegistry: the runtime-mutable
// mapping from category key to display name, emoji, and order, parsed
// from the analysis prompt file so the prompt remains the single source
// of truth for categories.
package category

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

var _ service.CategoryRegistry = (*Registry)(nil)

// bulletPattern matches top-level category bullets of the form
// "- **Key:** description".
var bulletPattern = regexp.MustCompile(`^-\s+\*\*([^:*]+):\*\*\s*(.*)$`)

// defaultEmojiPalette is drawn from deterministically by hashing the key,
// so a synthesized definition is stable across restarts.
var defaultEmojiPalette = []string{"🔹", "🔸", "🟣", "🟢", "🟡", "🔴", "⚪", "🟤"}

// Registry is the concrete CategoryRegistry implementation.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]entity.CategoryDefinition
	order       []string // keys in parse order, then first-seen synthesized order
}

// LoadFromPrompt parses top-level bullet lines matching
// "- **<Key>:** <description>" out of the analysis prompt file and
// establishes their parse order.
func LoadFromPrompt(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt file: %w", err)
	}
	defer f.Close()

	r := &Registry{definitions: make(map[string]entity.CategoryDefinition)}

	scanner := bufio.NewScanner(f)
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		m := bulletPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		description := strings.TrimSpace(m[2])
		if key == "" {
			continue
		}
		if _, exists := r.definitions[key]; exists {
			continue
		}
		def := entity.CategoryDefinition{
			Key:         key,
			DisplayName: key,
			Emoji:       emojiFor(key),
			Description: description,
			OrderIndex:  idx,
		}
		r.definitions[key] = def
		r.order = append(r.order, key)
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan prompt file: %w", err)
	}

	return r, nil
}

// Lookup returns key's definition, synthesizing and registering one with a
// deterministic hashed emoji if key has never been seen.
func (r *Registry) Lookup(key string) entity.CategoryDefinition {
	r.mu.RLock()
	def, ok := r.definitions[key]
	r.mu.RUnlock()
	if ok {
		return def
	}
	return r.synthesize(key)
}

// AllOrdered returns definitions in prompt parse order, with synthesized
// ones appended afterward in first-seen order. The returned slice is a
// snapshot safe for the caller to range over without holding any lock.
func (r *Registry) AllOrdered() []entity.CategoryDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.CategoryDefinition, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.definitions[key])
	}
	return out
}

// RecordSeen registers a runtime-discovered key, synthesizing a
// definition for it if one doesn't already exist.
func (r *Registry) RecordSeen(key string) {
	r.mu.RLock()
	_, ok := r.definitions[key]
	r.mu.RUnlock()
	if !ok {
		r.synthesize(key)
	}
}

func (r *Registry) synthesize(key string) entity.CategoryDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def, ok := r.definitions[key]; ok {
		return def
	}
	def := entity.CategoryDefinition{
		Key:         key,
		DisplayName: key,
		Emoji:       emojiFor(key),
		OrderIndex:  len(r.order),
		Synthesized: true,
	}
	r.definitions[key] = def
	r.order = append(r.order, key)
	return def
}

// emojiFor deterministically hashes key into defaultEmojiPalette so the
// same unseen category always synthesizes to the same glyph.
func emojiFor(key string) string {
	var h uint32 = 2166136261 // FNV-1a offset basis
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return defaultEmojiPalette[h%uint32(len(defaultEmojiPalette))]
}
