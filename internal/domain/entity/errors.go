package entity

import "errors"

var (
	// ContentItem errors
	ErrInvalidItemID     = errors.New("invalid content item id")
	ErrEmptyURL          = errors.New("content item url must not be empty")
	ErrPublishTimeFuture = errors.New("content item publish time too far in the future")

	// AnalysisResult errors
	ErrEmptyCategory   = errors.New("analysis result category must not be empty")
	ErrScoreOutOfRange = errors.New("weight_score must be in [0,100]")

	// CategoryDefinition errors
	ErrEmptyCategoryKey = errors.New("category key must not be empty")

	// RunRecord errors
	ErrInvalidRunID = errors.New("invalid run id")
)
