// Package edgar fetches SEC EDGAR filing metadata and raw iXBRL documents.
// It is the retrieval collaborator of the structure-recovery pipeline: the
// pipeline itself never performs network I/O, so this package stops at
// handing over the raw HTML text of a filing.
package edgar

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	userAgent         = "ixbrl-pipeline admin@example.com"
	submissionsAPIURL = "https://data.sec.gov/submissions/CIK%s.json"
	filingBaseURL     = "https://www.sec.gov/Archives/edgar/data/%s/%s/%s"
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// Parser resolves tickers, locates filings, and fetches raw filing HTML.
type Parser struct {
	client      *http.Client
	tickerCache map[string]string // Ticker -> CIK (padded)
	tickerMutex sync.RWMutex
}

// NewParser creates a new EDGAR parser.
func NewParser() *Parser {
	return &Parser{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// LookupCIK resolves a ticker symbol to a CIK using SEC's
// company_tickers.json. The full ticker map is fetched lazily once and
// cached for the life of the Parser.
func (p *Parser) LookupCIK(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))

	p.tickerMutex.Lock()
	defer p.tickerMutex.Unlock()

	if p.tickerCache == nil {
		p.tickerCache = make(map[string]string)
	}
	if cik, ok := p.tickerCache[normalized]; ok {
		return cik, nil
	}
	if len(p.tickerCache) == 0 {
		if err := p.loadTickerCache(); err != nil {
			return "", err
		}
		if cik, ok := p.tickerCache[normalized]; ok {
			return cik, nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// loadTickerCache fetches the full ticker list from SEC.
// Format: {"0": {"cik_str": 123, "ticker": "AAPL", "title": "Apple"}, ...}
func (p *Parser) loadTickerCache() error {
	body, err := p.fetchURL(companyTickersURL)
	if err != nil {
		return fmt.Errorf("failed to fetch company tickers: %w", err)
	}

	type tickerEntry struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	var resp map[string]tickerEntry
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse ticker JSON: %w", err)
	}

	for _, entry := range resp {
		p.tickerCache[strings.ToUpper(entry.Ticker)] = padCIK(strconv.Itoa(entry.CIK))
	}
	return nil
}

// GetFilingMetadata fetches metadata for a company's most recent filing of
// the given form.
func (p *Parser) GetFilingMetadata(cik string, form string) (*FilingMetadata, error) {
	return p.GetFilingMetadataByYear(cik, form, 0)
}

// GetFilingMetadataByYear locates the best filing for a specific fiscal
// year; fiscalYear=0 means most recent. For 10-K the search also accepts
// amendments (10-K/A), preferring the latest filing date for the year.
func (p *Parser) GetFilingMetadataByYear(cik string, form string, fiscalYear int) (*FilingMetadata, error) {
	cik = padCIK(cik)

	body, err := p.fetchURL(fmt.Sprintf(submissionsAPIURL, cik))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	var resp SubmissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}

	var best *FilingMetadata
	var bestDate string
	for i, f := range resp.Filings.Recent.Form {
		if !formMatches(form, f) {
			continue
		}

		accession := resp.Filings.Recent.AccessionNumber[i]
		primaryDoc := resp.Filings.Recent.PrimaryDocument[i]
		filingDate := resp.Filings.Recent.FilingDate[i]
		fileFiscalYear := extractFiscalYear(primaryDoc, filingDate)

		if fiscalYear > 0 && fileFiscalYear != fiscalYear {
			continue
		}

		if best == nil || filingDate > bestDate {
			accessionNoDashes := strings.ReplaceAll(accession, "-", "")
			best = &FilingMetadata{
				CIK:             cik,
				CompanyName:     resp.Name,
				Tickers:         resp.Tickers,
				AccessionNumber: accession,
				FilingDate:      filingDate,
				Form:            f,
				FiscalYear:      fileFiscalYear,
				FiscalPeriod:    determineFiscalPeriod(form),
				PrimaryDocument: primaryDoc,
				FilingURL:       fmt.Sprintf(filingBaseURL, cik, accessionNoDashes, primaryDoc),
				ParsedAt:        time.Now(),
			}
			bestDate = filingDate
		}
	}

	if best != nil {
		return best, nil
	}
	if fiscalYear > 0 {
		return nil, fmt.Errorf("no %s (or amendment) filing found for CIK %s fiscal year %d", form, cik, fiscalYear)
	}
	return nil, fmt.Errorf("no %s filing found for CIK %s", form, cik)
}

// FetchFilingHTML fetches the raw iXBRL HTML content of a filing. The
// returned text goes unmodified into the pipeline: the fact extractor needs
// the inline tags intact.
func (p *Parser) FetchFilingHTML(filingURL string) (string, error) {
	body, err := p.fetchURL(filingURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing HTML: %w", err)
	}
	return string(body), nil
}

func (p *Parser) fetchURL(url string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// formMatches accepts amendments for 10-K requests.
func formMatches(requested, actual string) bool {
	if requested == "10-K" {
		return actual == "10-K" || actual == "10-KA" || actual == "10-K/A"
	}
	return actual == requested
}

func padCIK(cik string) string {
	cik = strings.TrimLeft(cik, "0")
	return fmt.Sprintf("%010s", cik)
}

var fiscalYearDocRe = regexp.MustCompile(`(\d{4})\d{4}\.htm`)

// extractFiscalYear guesses the fiscal year from the primary document name
// (e.g. "aapl-20240928.htm"), falling back to filing date minus one year
// since a 10-K filed in year N usually covers fiscal year N-1.
func extractFiscalYear(doc string, filingDate string) int {
	if m := fiscalYearDocRe.FindStringSubmatch(doc); len(m) > 1 {
		if year, err := strconv.Atoi(m[1]); err == nil {
			return year
		}
	}
	if len(filingDate) >= 4 {
		if year, err := strconv.Atoi(filingDate[:4]); err == nil {
			return year - 1
		}
	}
	return 0
}

func determineFiscalPeriod(form string) string {
	switch form {
	case "10-K":
		return "FY"
	case "10-Q":
		return "Q"
	default:
		return ""
	}
}
