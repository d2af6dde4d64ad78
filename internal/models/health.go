package models

import "time"

// HealthView is a snapshot of one processor's readiness, written by the
// Health-Check Orchestrator and read by the Dispatch Engine. It expires
// naturally in the data store if not refreshed.
type HealthView struct {
	Failing         bool      `json:"failing"`
	MinResponseTime int       `json:"minResponseTime"`
	LastCheckedAt   time.Time `json:"lastCheckedAt"`
}
