package prompt

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
)

// Placeholder is substituted exactly once with the market snapshot body.
const Placeholder = "${Grok_Summary_Here}"

// Assembler implements PromptAssembler: splice a MarketSnapshot body into
// the analysis prompt template and cache the result by
// (template_mtime, snapshot.generated_at).
type Assembler struct {
	templatePath string

	mu           sync.Mutex
	cachedPrompt string
	cachedKey    cacheKey
}

type cacheKey struct {
	templateModTime time.Time
	snapshotAt       time.Time
}

// NewAssembler constructs an Assembler reading its template from path.
func NewAssembler(templatePath string) *Assembler {
	return &Assembler{templatePath: templatePath}
}

var _ service.PromptAssembler = (*Assembler)(nil)

// Assemble substitutes Placeholder in the template with snapshot.Body and
// caches the result keyed by (template mtime, snapshot.GeneratedAt).
func (a *Assembler) Assemble(snapshot entity.MarketSnapshot) (string, error) {
	info, err := os.Stat(a.templatePath)
	if err != nil {
		return "", fmt.Errorf("stat prompt template: %w", err)
	}
	key := cacheKey{templateModTime: info.ModTime(), snapshotAt: snapshot.GeneratedAt}

	a.mu.Lock()
	defer a.mu.Unlock()
	if key == a.cachedKey && a.cachedPrompt != "" {
		return a.cachedPrompt, nil
	}

	tmpl, err := LoadTemplate(a.templatePath)
	if err != nil {
		return "", err
	}

	if !strings.Contains(tmpl.Body, Placeholder) {
		return "", fmt.Errorf("prompt template %s missing placeholder %s", a.templatePath, Placeholder)
	}
	assembled := strings.Replace(tmpl.Body, Placeholder, snapshot.Body, 1)

	a.cachedPrompt = assembled
	a.cachedKey = key
	return assembled, nil
}
