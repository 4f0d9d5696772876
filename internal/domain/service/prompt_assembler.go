package service

import "github.com/newsbot/cryptonews/internal/domain/entity"

// PromptAssembler splices a MarketSnapshot body into the analysis prompt
// template's placeholder and caches the result by
// (template_mtime, snapshot.generated_at).
type PromptAssembler interface {
	Assemble(snapshot entity.MarketSnapshot) (string, error)
}
