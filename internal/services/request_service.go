package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/dto"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// RequestService handles HTTP request parsing
type RequestService struct{}

// NewRequestService creates a new request service
func NewRequestService() *RequestService {
	return &RequestService{}
}

// ParseScanRequest parses an HTTP request into ScanOptions. An empty body
// means a full scan with configured defaults.
func (s *RequestService) ParseScanRequest(r *http.Request) (ScanOptions, error) {
	if r.Method != http.MethodPost {
		return ScanOptions{}, fmt.Errorf("method not allowed: %s", r.Method)
	}

	var req dto.ScanRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return ScanOptions{}, fmt.Errorf("failed to decode request: %w", err)
		}
	}

	return s.ToScanOptions(req)
}

// ToScanOptions validates a request and converts it.
func (s *RequestService) ToScanOptions(req dto.ScanRequest) (ScanOptions, error) {
	opts := ScanOptions{
		Tickers:       CleanTickers(req.Tickers),
		NoCache:       req.NoCache,
		StrictPairing: req.StrictPairing,
		MaxResults:    req.MaxResults,
	}

	if req.MaxResults != nil && *req.MaxResults < 0 {
		return ScanOptions{}, fmt.Errorf("max_results must be >= 0")
	}

	if req.PerContractCost != "" {
		cost, err := decimal.NewFromString(req.PerContractCost)
		if err != nil {
			return ScanOptions{}, fmt.Errorf("invalid per_contract_cost: %w", err)
		}
		if cost.IsNegative() {
			return ScanOptions{}, fmt.Errorf("per_contract_cost must be >= 0")
		}
		opts.PerContractCost = &cost
	}

	return opts, nil
}

// CleanTickers upper-cases, strips class suffixes and de-duplicates symbols.
func CleanTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	var clean []string
	for _, t := range tickers {
		for _, part := range strings.Split(t, ",") {
			sym := utils.BaseSymbol(part)
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			clean = append(clean, sym)
		}
	}
	return clean
}
