package entity

// CategoryDefinition describes one category surfaced by the analysis prompt,
// or a synthesized stand-in for a category the model invented at runtime.
type CategoryDefinition struct {
	Key         string
	DisplayName string
	Emoji       string
	Description string
	OrderIndex  int
	Synthesized bool
}

// NewCategoryDefinition validates that Key is non-empty.
func NewCategoryDefinition(key, displayName, emoji, description string, orderIndex int) (*CategoryDefinition, error) {
	if key == "" {
		return nil, ErrEmptyCategoryKey
	}
	return &CategoryDefinition{
		Key:         key,
		DisplayName: displayName,
		Emoji:       emoji,
		Description: description,
		OrderIndex:  orderIndex,
	}, nil
}
