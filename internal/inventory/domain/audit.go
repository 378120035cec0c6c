package domain

import "time"

// Audit actions recorded for traceability.
const (
	AuditLoginSuccess   = "login_success"
	AuditLoginFailure   = "login_failure"
	AuditUserRegistered = "user_registered"
	AuditListSent       = "list_sent"
	AuditProductCreated = "product_created"
	AuditProductDeleted = "product_deleted"
	AuditValidated      = "product_validated"
	AuditBackupCreated  = "backup_created"
	AuditBackupRestored = "backup_restored"
)

// AuditEntry is one insert-only traceability record.
type AuditEntry struct {
	ID        int64     `db:"id"`
	UserID    *int64    `db:"user_id"`
	Action    string    `db:"action"`
	TableName string    `db:"table_name"`
	RecordID  *int64    `db:"record_id"`
	Detail    *string   `db:"detail"`
	IPAddress *string   `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}
