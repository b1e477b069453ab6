package entity

import "time"

// DailyUsage 每用户每日（UTC）的故事生成计数
// (UserID, UsageDate) 唯一，计数由原子 upsert 维护
type DailyUsage struct {
	UserID           string    `json:"user_id"`
	UsageDate        string    `json:"usage_date"` // YYYY-MM-DD, UTC
	StoriesGenerated int       `json:"stories_generated"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UsageDateFor 将时间归一化到 UTC 日期键
func UsageDateFor(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// StartOfUTCDay 返回给定时间所在 UTC 日的零点
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
