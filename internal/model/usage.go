package model

import "time"

type ApiUsage struct {
	ApiName      string
	UsageDate    time.Time
	RequestCount int
	TokenCount   int64
}
