package catalog

// defaultDefinitions is the built-in loan servicing taxonomy
var defaultDefinitions = []Definition{
	{
		Name:        "Adjustment",
		Description: "Request to adjust financial amounts related to a loan.",
		Fields:      []string{"Adjustment Amount", "Adjustment Reason", "Effective Date"},
	},
	{
		Name:        "Enquiry",
		Description: "Request to provide information, clarification or explanation related to accounts, loans and interest rates.",
		Fields:      []string{"Enquiry Reason"},
		SubTypes: []Definition{
			{
				Name:        "Balance Enquiry",
				Description: "Request to provide information about the account balance.",
				Fields:      []string{"Account Type"},
			},
			{
				Name:        "Loan Information",
				Description: "Request to provide information about type of loan provided.",
				Fields:      []string{"Loan Type", "Planned Date"},
			},
		},
	},
	{
		Name:        "AU Transfer",
		Description: "Request to transfer an asset unit.",
		Fields:      []string{"Source AU", "Target AU", "Transfer Amount"},
	},
	{
		Name:        "Closing Notice",
		Description: "Request related to closing a loan or financial account.",
		Fields:      []string{"Closure Date", "Remaining Balance", "Closure Reason"},
		SubTypes: []Definition{
			{
				Name:        "Reallocation Fees",
				Description: "Request to reallocate fees during closure.",
				Fields:      []string{"Fee Type", "Reallocation Amount"},
			},
			{
				Name:        "Amendment Fees",
				Description: "Request to amend fees during closure.",
				Fields:      []string{"Fee Type", "New Fee Amount"},
			},
			{
				Name:        "Reallocation Principal",
				Description: "Request to reallocate principal during closure.",
				Fields:      []string{"Reallocation Amount", "Target Account"},
			},
		},
	},
	{
		Name:        "Commitment Change",
		Description: "Request to change commitment terms for a loan.",
		Fields:      []string{"Commitment ID", "Change Reason"},
		SubTypes: []Definition{
			{
				Name:        "Cashless Roll",
				Description: "Extend commitment without new cash movement.",
				Fields:      []string{"New Expiry Date", "Justification"},
			},
			{
				Name:        "Decrease",
				Description: "Decrease the commitment amount.",
				Fields:      []string{"New Commitment Amount", "Effective Date"},
			},
			{
				Name:        "Increase",
				Description: "Increase the commitment amount.",
				Fields:      []string{"New Commitment Amount", "Funding Source"},
			},
		},
	},
	{
		Name:        "Fee Payment",
		Description: "Request for fee-related payments.",
		Fields:      []string{"Payment Date", "Payment Amount", "Payment Method"},
		SubTypes: []Definition{
			{
				Name:        "Ongoing Fee",
				Description: "Payment of ongoing fees.",
				Fields:      []string{"Fee Period", "Due Date"},
			},
			{
				Name:        "Letter of Credit Fee",
				Description: "Payment for Letter of Credit fees.",
				Fields:      []string{"LOC Number", "Fee Due Date"},
			},
			{
				Name:        "Principal",
				Description: "Payment towards principal amount.",
				Fields:      []string{"Principal Amount"},
				Optional:    []string{"Payment Schedule"},
			},
			{
				Name:        "Interest",
				Description: "Payment of interest amount.",
				Fields:      []string{"Interest Period", "Interest Rate"},
			},
			{
				Name:        "Principal + Interest",
				Description: "Payment of both principal and interest.",
				Fields:      []string{"Total Payment Amount"},
				Optional:    []string{"Breakdown Required"},
			},
		},
	},
	{
		Name:        "Money Movement - Inbound",
		Description: "Inbound money transfer related to a loan or fee.",
		Fields:      []string{"Transfer Date", "Sender Details", "Transfer Amount", "Receiving Account"},
		SubTypes: []Definition{
			{
				Name:        "Principal + Interest + Fee",
				Description: "Inbound transfer covering principal, interest, and fees.",
				Fields:      []string{"Principal Component", "Interest Component", "Fee Component"},
			},
		},
	},
	{
		Name:        "Money Movement - Outbound",
		Description: "Outbound money transfer related to a loan or fee.",
		Fields:      []string{"Transfer Date", "Recipient Details", "Transfer Amount", "Payment Method"},
		SubTypes: []Definition{
			{
				Name:        "Timebound",
				Description: "Outbound transfer with a time restriction.",
				Fields:      []string{"Execution Date", "Time Constraint"},
			},
			{
				Name:        "Foreign Currency",
				Description: "Outbound transfer in a foreign currency.",
				Fields:      []string{"Currency Type", "Exchange Rate"},
			},
		},
	},
}

// Default returns the built-in loan servicing catalog
func Default() *Catalog {
	c, err := New(defaultDefinitions)
	if err != nil {
		// The built-in table is static; a failure here is a programming error
		panic(err)
	}
	return c
}
