package domain

import "time"

// AuditLog records every significant action in the system.
type AuditLog struct {
	ID         string    `json:"id"          db:"id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	Action     string    `json:"action"      db:"action"`
	Resource   string    `json:"resource"    db:"resource"`
	ResourceID string    `json:"resource_id" db:"resource_id"`
	Details    string    `json:"details"     db:"details"` // JSON blob
	IP         string    `json:"ip"          db:"ip"`
	UserAgent  string    `json:"user_agent"  db:"user_agent"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// AuditEntry is a single record handed to an audit writer.
type AuditEntry struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	IP         string
	UserAgent  string
}

// Audit action constants.
const (
	AuditActionHTTPRequest       = "http_request"
	AuditActionTokenIssued       = "token_issued"
	AuditActionChannelResolved   = "channel_resolved"
	AuditActionMembershipSkipped = "membership_skipped"
	AuditActionMembershipFailed  = "membership_failed"
	AuditActionAutoJoinFailed    = "auto_join_failed"
)

// Audit resource constants.
const (
	AuditResourceAPI     = "api"
	AuditResourceUser    = "user"
	AuditResourceChannel = "channel"
)
