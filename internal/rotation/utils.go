package rotation

import (
	"math"
	"time"
)

// truncateToDate 去掉时间部分，只保留日历日期
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 返回两个日期之间相差的天数（from 在前时为正）
func daysBetween(from, to time.Time) int {
	// 四舍五入以消除夏令时造成的 23/25 小时天
	return int(math.Round(to.Sub(from).Hours() / 24))
}
