package utils

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CurrentDate 当前日期（中国时区），格式 YYYY-MM-DD
func CurrentDate() string {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		logrus.Warnf("无法加载中国时区，使用UTC: %v", err)
		loc = time.UTC
	}
	return time.Now().In(loc).Format("2006-01-02")
}
