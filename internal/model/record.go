package model

import "time"

// Record is the unified threat intelligence summary returned to callers.
// It is built once by the aggregator and never modified afterwards.
type Record struct {
	IPAddress     string  `json:"ipAddress"`
	Hostname      *string `json:"hostname,omitempty"` // nil when neither provider knows one
	ISP           string  `json:"isp"`
	Country       string  `json:"country"`
	AbuseScore    int     `json:"abuseScore"`    // 0-100
	RecentReports int     `json:"recentReports"` // >= 0
	VPNDetected   bool    `json:"vpnDetected"`
	ThreatScore   int     `json:"threatScore"` // 0-100
}

// HostnameOrEmpty returns the hostname or "" when absent
func (r Record) HostnameOrEmpty() string {
	if r.Hostname == nil {
		return ""
	}
	return *r.Hostname
}

// RiskLevel classifies a record for display. It never feeds back into the record.
type RiskLevel string

const (
	RiskMinimal RiskLevel = "Minimal Risk"
	RiskLow     RiskLevel = "Low Risk"
	RiskMedium  RiskLevel = "Medium Risk"
	RiskHigh    RiskLevel = "High Risk"
)

// Risk is a risk level together with the score that produced it
type Risk struct {
	Level RiskLevel `json:"level"`
	Score int       `json:"score"`
}

// HistoryItem is one entry of the search history
type HistoryItem struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress"`
	Record    Record    `json:"record"`
	Risk      Risk      `json:"risk"`
	CheckedAt time.Time `json:"checkedAt"`
}

// ErrorResponse is the JSON body sent for failed requests
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	RetryAfter string `json:"retryAfter,omitempty"`
}
