package service

import "github.com/newsbot/cryptonews/internal/domain/entity"

// CategoryRegistry is the single source of truth for category metadata,
// parsed from the analysis prompt file. Mutates on RecordSeen under a
// single mutex; AllOrdered returns an immutable snapshot safe for
// concurrent readers.
type CategoryRegistry interface {
	// Lookup returns key's definition, synthesizing one with a
	// deterministically hashed emoji if key was never seen before.
	Lookup(key string) entity.CategoryDefinition

	// AllOrdered returns definitions in prompt parse order, with
	// synthesized ones appended afterward in first-seen order.
	AllOrdered() []entity.CategoryDefinition

	// RecordSeen registers a runtime-discovered key, synthesizing a
	// definition for it if one doesn't already exist.
	RecordSeen(key string)
}
