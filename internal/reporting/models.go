package reporting

// Summary is the manager dashboard's headline counters.
type Summary struct {
	TotalProducts      int `json:"totalProducts"`
	TotalStores        int `json:"totalStores"`
	TotalSupervisors   int `json:"totalSupervisors"`
	TotalSales         int `json:"totalSales"`
	TotalCustomers     int `json:"totalCustomers"`
	ActiveWarranties   int `json:"activeWarranties"`
	ExpiringWarranties int `json:"expiringWarranties"`
	TotalClaims        int `json:"totalClaims"`
}

// MonthlyPoint is one calendar month. Month is 1-12.
type MonthlyPoint struct {
	Month         int    `json:"month"`
	Label         string `json:"label"`
	Registrations int    `json:"registrations"`
	Claims        int    `json:"claims"`
}

// MonthlySummary always holds twelve points, January first.
type MonthlySummary struct {
	Year   int            `json:"year"`
	Months []MonthlyPoint `json:"months"`
}

type Overview struct {
	Summary Summary        `json:"summary"`
	Monthly MonthlySummary `json:"monthly"`
}
