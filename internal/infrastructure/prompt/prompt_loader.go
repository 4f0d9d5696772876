package prompt

import (
	"fmt"
	"os"
	"strings"
)

// Template is a prompt file with optional YAML frontmatter stripped off;
// Body is the markdown that follows it.
type Template struct {
	Name string
	Body string
	Path string
}

// LoadTemplate reads path and strips a leading "---\n...\n---\n" YAML
// frontmatter block if present, matching the convention used across this
// codebase's prompt files (title/metadata only, parsed loosely — we don't
// pull in a YAML dependency for a block this small).
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return &Template{Name: fileBaseName(path), Body: strings.TrimSpace(content), Path: path}, nil
	}

	lines := strings.SplitN(content, "\n", -1)
	closingIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closingIdx = i
			break
		}
	}
	if closingIdx == -1 {
		return nil, fmt.Errorf("unclosed YAML frontmatter in %s", path)
	}

	body := strings.Join(lines[closingIdx+1:], "\n")
	return &Template{Name: fileBaseName(path), Body: strings.TrimSpace(body), Path: path}, nil
}

func fileBaseName(path string) string {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			name = path[i+1:]
			break
		}
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
