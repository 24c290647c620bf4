package auth

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

const (
	PermCleanupRun   = "cleanup.run"
	PermCleanupApply = "cleanup.apply"
	PermUsersWrite   = "users.write"
	PermProvisionRun = "provision.run"
	PermTriageRead   = "triage.read"
	PermTriageWrite  = "triage.write"
	PermAuditRead    = "audit.read"
)

var DefaultPermissions = []string{
	PermCleanupRun,
	PermCleanupApply,
	PermUsersWrite,
	PermProvisionRun,
	PermTriageRead,
	PermTriageWrite,
	PermAuditRead,
}

// Operators can scan and patch day to day; destructive cleanup, bulk
// provisioning and the audit trail stay with admins.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermCleanupRun,
		PermCleanupApply,
		PermUsersWrite,
		PermProvisionRun,
		PermTriageRead,
		PermTriageWrite,
		PermAuditRead,
	},
	RoleOperator: {
		PermCleanupRun,
		PermUsersWrite,
		PermTriageRead,
		PermTriageWrite,
	},
}
