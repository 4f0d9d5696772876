package entity

// CategoryIgnored 是分类器用来标记“应从报告中剔除”的哨兵类别。
const CategoryIgnored = "Ignored"

// AnalysisResult 是分析流水线为一条存活的 ContentItem 产出的分类、打分与摘要。
type AnalysisResult struct {
	Time         string
	Category     string
	WeightScore  int
	Summary      string
	Source       string
	SourceItemID string
}

// NewAnalysisResult 校验不变量（category 非空，weight_score 在 [0,100] 内）。
func NewAnalysisResult(timeStr, category string, weightScore int, summary, source, sourceItemID string) (*AnalysisResult, error) {
	if category == "" {
		return nil, ErrEmptyCategory
	}
	if weightScore < 0 || weightScore > 100 {
		return nil, ErrScoreOutOfRange
	}
	return &AnalysisResult{
		Time:         timeStr,
		Category:     category,
		WeightScore:  weightScore,
		Summary:      summary,
		Source:       source,
		SourceItemID: sourceItemID,
	}, nil
}

// ClipScore 将越界的 weight_score 夹取到 [0,100]。
func ClipScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
