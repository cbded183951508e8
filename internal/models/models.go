package models

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     interface{} `json:"raw"`     // For CSV/sorting: "1234.56"
	Display string      `json:"display"` // For UI: "$1234.56"
	Type    string      `json:"type"`    // currency, percentage, integer, text, date
}

// FormattedCandidate represents a candidate with formatted fields
type FormattedCandidate map[string]FieldValue

// FormattedScanResponse represents the complete API response
type FormattedScanResponse struct {
	Success bool              `json:"success"`
	Data    FormattedScanData `json:"data"`
	Meta    ResponseMetadata  `json:"meta"`
}

type FormattedScanData struct {
	Results       []FormattedCandidate     `json:"results"`
	FieldMetadata map[string]FieldMetadata `json:"field_metadata"`
}

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

type ResponseMetadata struct {
	RunID          string  `json:"run_id"`
	ScanDate       string  `json:"scan_date"`
	Timestamp      string  `json:"timestamp"`
	ProcessingTime float64 `json:"processing_time"`
	CacheHit       bool    `json:"cache_hit"`
	UniverseCount  int     `json:"universe_count"`
	EvaluatedCount int     `json:"evaluated_count"`
	ResultCount    int     `json:"result_count"`
	SkippedCount   int     `json:"skipped_count"`
}
