package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// AppName is the canonical application name.
const AppName = "newsbot"

// HomeDir returns the user's newsbot configuration home: ~/.newsbot
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+AppName)
}

// AnalysisPromptPath returns the path to the analysis prompt template
// Bootstrap seeds on first run.
func AnalysisPromptPath() string {
	return filepath.Join(HomeDir(), "prompts", "analysis.md")
}

// Bootstrap ensures ~/.newsbot exists with a starter config and analysis
// prompt template. Safe to call repeatedly — never overwrites user edits.
func Bootstrap(logger *zap.Logger) error {
	root := HomeDir()

	dirs := []string{
		root,
		filepath.Join(root, "prompts"),
		filepath.Join(root, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	defaults := map[string]string{
		filepath.Join(root, "config.yaml"):                  defaultConfig,
		filepath.Join(root, "prompts", "analysis.md"):       defaultAnalysisPrompt,
	}

	created := 0
	for path, content := range defaults {
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			logger.Warn("failed to write default file", zap.String("path", path), zap.Error(err))
			continue
		}
		created++
	}

	if created > 0 {
		logger.Info("newsbot bootstrap complete", zap.String("home", root), zap.Int("files_created", created))
	} else {
		logger.Debug("newsbot home directory OK", zap.String("home", root))
	}

	return nil
}

const defaultConfig = `# newsbot configuration — auto-generated on first launch, edit freely.
time_window_hours: 24
execution_interval_seconds: 3600

llm:
  provider: openai
  endpoint: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key_env: NEWSBOT_LLM_API_KEY
  temperature: 0.2
  max_tokens: 4096
  batch_size: 10
  max_batch_parallelism: 2

market_snapshot:
  endpoint: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key_env: NEWSBOT_SNAPSHOT_API_KEY
  ttl_minutes: 30

telegram:
  bot_token_env: NEWSBOT_TELEGRAM_TOKEN
  chat_id: ""
  parse_mode: Markdown

telegram_commands:
  enabled: false
  authorized_users: []
  execution_timeout_minutes: 30
  max_concurrent_executions: 1
  command_rate_limit:
    max_commands_per_hour: 6
    cooldown_minutes: 5

fetchers: []

storage:
  path: newsbot.db
  retention_days: 30

log:
  level: info
  format: json
`

const defaultAnalysisPrompt = `---
title: Crypto News Analysis
---

You are a crypto-news analyst. Classify each item into exactly one of the
categories below, score its importance 0-100, and write a concise summary.

Categories:
- **Truth:** Verified on-chain or regulatory fact with durable market impact.
- **Narrative:** Sentiment- or story-driven content shaping market perception.
- **Alpha:** Actionable, time-sensitive trading or positioning information.
- **Ignored:** Spam, duplicate, or irrelevant content — excluded from the report.

Live market context:
${Grok_Summary_Here}
`
