package models

import "time"

// AuditFields holds the audit columns shared by persisted entities.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at" json:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by" json:"last_updated_by"`
}
