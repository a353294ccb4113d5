// Package approval holds the approval-routing core: role chains, the
// document model and the state machine that decides who may act next.
// Everything in this package is pure — no I/O, no ambient user context;
// the acting user and role are always explicit parameters.
package approval

import "strings"

// Role is a canonical chain position. Raw role strings from the backend
// are collapsed onto these values via NormalizeRole before any comparison.
type Role string

const (
	RoleManager   Role = "manager"
	RoleExecutive Role = "executive"
	RoleFinance   Role = "finance"
	RoleHR        Role = "hr"
	RoleGMD       Role = "gmd"
	RoleChairman  Role = "chairman"
)

// NormalizeRole maps a raw role string onto its canonical chain position.
// The backend uses several literal strings ("executive", "ict_executive",
// "ict", ...) for the same executive seat; all of them collapse here and
// nowhere else.
func NormalizeRole(raw string) Role {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(s, "executive") || strings.Contains(s, "ict") {
		return RoleExecutive
	}
	return Role(s)
}

// NormalizeDepartment canonicalizes a department string for chain lookup.
func NormalizeDepartment(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// DeptICT is the department whose requisitions and memos take the long
// five-seat chain.
const DeptICT = "ict"
