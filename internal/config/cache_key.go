package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey holds the candidate's answer set as a JSON blob.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("assessment:%s:answers", sessionID)
}

// SessionAnalyticsKey holds the tracker snapshot as a JSON blob.
func (r *CacheKeyStruct) SessionAnalyticsKey(sessionID string) string {
	return fmt.Sprintf("assessment:%s:interactionAnalytics", sessionID)
}

// SessionStatusKey caches the session status so hot paths skip Postgres.
func (r *CacheKeyStruct) SessionStatusKey(sessionID string) string {
	return fmt.Sprintf("assessment:%s:status", sessionID)
}

// SessionRecommendationKey caches the narrative generated for a result.
func (r *CacheKeyStruct) SessionRecommendationKey(sessionID string) string {
	return fmt.Sprintf("assessment:%s:recommendation", sessionID)
}

// HRSessionKey stores the active token id of an HR user.
func (r *CacheKeyStruct) HRSessionKey(userID int) string {
	return fmt.Sprintf("hr_login:%d", userID)
}

// DashboardKey caches the aggregated dashboard payload.
func (r *CacheKeyStruct) DashboardKey() string {
	return "hr:dashboard"
}

// SessionMonitorChannel returns the Redis PubSub channel for a live session feed
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("assessment:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
