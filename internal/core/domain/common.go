package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// The actor is whatever identity the caller supplied (header, CLI flag or "system").
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// SystemActor is recorded when no caller identity is available.
const SystemActor = "system"
