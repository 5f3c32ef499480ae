package roles

import (
	"testing"

	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRoleOf(t *testing.T) {
	d := NewDirectory([]string{" Bank.Example ", "@help.example"}, []string{"ops@partner.example"}, zaptest.NewLogger(t))

	tests := []struct {
		from string
		want core.SenderRole
	}{
		{"agent@bank.example", core.RoleSupport},
		{"Agent Smith <AGENT@BANK.EXAMPLE>", core.RoleSupport},
		{"desk@help.example", core.RoleSupport},
		{"ops@partner.example", core.RoleSupport},
		{"someone@partner.example", core.RoleCustomer},
		{"client@example.com", core.RoleCustomer},
		{"not-an-address", core.RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, d.RoleOf(tt.from))
		})
	}
}

func TestEmptyDirectoryTreatsEveryoneAsCustomer(t *testing.T) {
	d := NewDirectory(nil, nil, nil)
	assert.Equal(t, core.RoleCustomer, d.RoleOf("agent@bank.example"))
}
