package edgar

import "time"

// FilingMetadata identifies one SEC filing and where its primary iXBRL
// document lives.
type FilingMetadata struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	Tickers         []string  `json:"tickers"`
	AccessionNumber string    `json:"accession_number"`
	FilingDate      string    `json:"filing_date"`
	Form            string    `json:"form"`
	FiscalYear      int       `json:"fiscal_year"`
	FiscalPeriod    string    `json:"fiscal_period"`
	PrimaryDocument string    `json:"primary_document"`
	FilingURL       string    `json:"filing_url"`
	ParsedAt        time.Time `json:"parsed_at"`
}

// SubmissionsResponse from the SEC submissions API.
type SubmissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings Filings  `json:"filings"`
}

// Filings contains filing information.
type Filings struct {
	Recent RecentFilings `json:"recent"`
}

// RecentFilings contains recent filing arrays, parallel by index.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}
