package dto

// ScanRequest is the body of POST /api/scan. Every field is optional.
type ScanRequest struct {
	Tickers         []string `json:"tickers"`
	NoCache         bool     `json:"no_cache"`
	StrictPairing   *bool    `json:"strict_pairing,omitempty"`
	MaxResults      *int     `json:"max_results,omitempty"`
	PerContractCost string   `json:"per_contract_cost,omitempty"`
}

// ErrorResponse is returned for any failed API call
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	LastRunID string `json:"last_run_id,omitempty"`
}
