package entity

import "time"

// MarketSnapshot 是由联网 LLM 生成的实时市场简报，缓存在内存中并带 TTL。
type MarketSnapshot struct {
	GeneratedAt time.Time
	Body        string
	SourceModel string
	IsFallback  bool
}

// FallbackSnapshot 返回降级简报：当 MarketSnapshotService 在重试耗尽后仍无法取得实时数据时使用。
func FallbackSnapshot(body string) MarketSnapshot {
	return MarketSnapshot{
		GeneratedAt: time.Now().UTC(),
		Body:        body,
		SourceModel: "fallback",
		IsFallback:  true,
	}
}
