package approval

import (
	"fmt"

	"github.com/orbiterp/be-approvals/internal/apperrors"
)

// ResolveChain returns the ordered roles that must approve a document of
// the given type, in sequence, before it can complete.
//
// Requisitions and memos raised by the ICT department go through the full
// management line; everything else starts at finance. Leave requests use a
// fixed HR chain regardless of department.
func ResolveChain(docType DocType, department string) ([]Role, error) {
	switch docType {
	case DocTypeMemo, DocTypeRequisition:
		if NormalizeDepartment(department) == DeptICT {
			return []Role{RoleManager, RoleExecutive, RoleFinance, RoleGMD, RoleChairman}, nil
		}
		return []Role{RoleFinance, RoleGMD, RoleChairman}, nil
	case DocTypeLeave:
		return []Role{RoleManager, RoleExecutive, RoleHR, RoleGMD, RoleChairman}, nil
	}
	return nil, apperrors.Configuration(fmt.Sprintf("unknown document type %q", docType))
}

// chainIndex returns the position of role in chain, or -1.
func chainIndex(chain []Role, role Role) int {
	for i, r := range chain {
		if r == role {
			return i
		}
	}
	return -1
}
