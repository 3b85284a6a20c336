package models

import "time"

// Audit actions recorded by the allocation workflow and auth.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionPasswordChange  = "PASSWORD_CHANGE"
	AuditActionRoomAllocate    = "ROOM_ALLOCATE"
	AuditActionRoomVacate      = "ROOM_VACATE"
	AuditActionRoomCapacity    = "ROOM_CAPACITY_UPDATE"
	AuditActionTransferRequest = "TRANSFER_REQUEST"
	AuditActionTransferApprove = "TRANSFER_APPROVE"
	AuditActionTransferReject  = "TRANSFER_REJECT"
	AuditActionFeeCreate       = "FEE_CREATE"
	AuditActionFeePay          = "FEE_PAY"
	AuditActionOverdueSweep    = "FEE_OVERDUE_SWEEP"
	AuditActionReportExport    = "REPORT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
