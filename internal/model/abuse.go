package model

// AbuseResponse is the AbuseIPDB /check envelope
type AbuseResponse struct {
	Data *AbuseReport `json:"data"`
}

// AbuseReport holds the AbuseIPDB fields consumed by the aggregator.
// Everything else in the provider payload is ignored at decode time.
type AbuseReport struct {
	IPAddress            string   `json:"ipAddress"`
	Hostnames            []string `json:"hostnames"`
	ISP                  string   `json:"isp"`
	CountryName          string   `json:"countryName"`
	AbuseConfidenceScore int      `json:"abuseConfidenceScore"` // 0-100
	TotalReports         int      `json:"totalReports"`
}
