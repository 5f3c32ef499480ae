package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{
		"Adjustment",
		"Enquiry",
		"AU Transfer",
		"Closing Notice",
		"Commitment Change",
		"Fee Payment",
		"Money Movement - Inbound",
		"Money Movement - Outbound",
	}, c.Names())

	def, ok := c.Lookup("Fee Payment")
	require.True(t, ok)
	assert.Len(t, def.SubTypes, 5)

	_, ok = c.Lookup("Fee Payment Request")
	assert.False(t, ok)
}

func TestFields(t *testing.T) {
	c := Default()

	tests := []struct {
		name        string
		requestType string
		subType     string
		want        []string
	}{
		{
			name:        "top level only",
			requestType: "Fee Payment",
			want:        []string{"Loan Account ID", "Request Date", "Payment Date", "Payment Amount", "Payment Method"},
		},
		{
			name:        "sub-type fields are appended",
			requestType: "Commitment Change",
			subType:     "Decrease",
			want:        []string{"Loan Account ID", "Request Date", "Commitment ID", "Change Reason", "New Commitment Amount", "Effective Date"},
		},
		{
			name:        "optional fields are extracted too",
			requestType: "Fee Payment",
			subType:     "Principal",
			want: []string{"Loan Account ID", "Request Date", "Payment Date", "Payment Amount", "Payment Method",
				"Principal Amount", "Payment Schedule"},
		},
		{
			name:        "shared field appears once",
			requestType: "Money Movement - Outbound",
			subType:     "Timebound",
			want: []string{"Loan Account ID", "Request Date", "Transfer Date", "Recipient Details", "Transfer Amount",
				"Payment Method", "Execution Date", "Time Constraint"},
		},
		{
			name:        "unknown sub-type falls back to parent",
			requestType: "Adjustment",
			subType:     "Nope",
			want:        []string{"Loan Account ID", "Request Date", "Adjustment Amount", "Adjustment Reason", "Effective Date"},
		},
		{
			name:        "unknown type",
			requestType: "Nope",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Fields(tt.requestType, tt.subType))
		})
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Definition{{Name: "A"}, {Name: "A"}})
	assert.Error(t, err)

	_, err = New([]Definition{{Name: "A", SubTypes: []Definition{{Name: "x"}, {Name: "x"}}}})
	assert.Error(t, err)

	_, err = New([]Definition{{Name: " "}})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Names(), c.Names())

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
request_types:
  - name: Refund
    description: Return money to the customer.
    fields: [Refund Amount]
    sub_types:
      - name: Partial
        fields: [Reason]
`), 0o644))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Refund"}, c.Names())
	assert.Equal(t, []string{"Loan Account ID", "Request Date", "Refund Amount", "Reason"}, c.Fields("Refund", "Partial"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("request_types: []"))
	assert.Error(t, err)
}
