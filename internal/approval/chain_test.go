package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbiterp/be-approvals/internal/apperrors"
)

func TestResolveChain(t *testing.T) {
	tests := []struct {
		name       string
		docType    DocType
		department string
		want       []Role
	}{
		{
			name:       "ICT requisition takes the full management line",
			docType:    DocTypeRequisition,
			department: "ict",
			want:       []Role{RoleManager, RoleExecutive, RoleFinance, RoleGMD, RoleChairman},
		},
		{
			name:       "ICT memo takes the full management line",
			docType:    DocTypeMemo,
			department: "ICT",
			want:       []Role{RoleManager, RoleExecutive, RoleFinance, RoleGMD, RoleChairman},
		},
		{
			name:       "non-ICT requisition starts at finance",
			docType:    DocTypeRequisition,
			department: "accounts",
			want:       []Role{RoleFinance, RoleGMD, RoleChairman},
		},
		{
			name:       "memo with no department starts at finance",
			docType:    DocTypeMemo,
			department: "",
			want:       []Role{RoleFinance, RoleGMD, RoleChairman},
		},
		{
			name:       "leave ignores department",
			docType:    DocTypeLeave,
			department: "ict",
			want:       []Role{RoleManager, RoleExecutive, RoleHR, RoleGMD, RoleChairman},
		},
		{
			name:       "department comparison trims and lowercases",
			docType:    DocTypeMemo,
			department: "  Ict ",
			want:       []Role{RoleManager, RoleExecutive, RoleFinance, RoleGMD, RoleChairman},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := ResolveChain(tt.docType, tt.department)
			require.NoError(t, err)
			assert.Equal(t, tt.want, chain)
		})
	}
}

func TestResolveChain_UnknownType(t *testing.T) {
	_, err := ResolveChain(DocType("invoice"), "ict")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfiguration, apperrors.CodeOf(err))
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"manager", RoleManager},
		{"Manager", RoleManager},
		{"executive", RoleExecutive},
		{"ict_executive", RoleExecutive},
		{"ICT", RoleExecutive},
		{"Executive Director", RoleExecutive},
		{"finance", RoleFinance},
		{" GMD ", RoleGMD},
		{"Chairman", RoleChairman},
		{"hr", RoleHR},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRole(tt.raw))
		})
	}
}
