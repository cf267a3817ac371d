package model

// QualityReport holds the IPQualityScore fields consumed by the aggregator
type QualityReport struct {
	// Success and Message are only used to validate the response at the client boundary.
	// IPQualityScore answers 200 with success=false for rejected requests.
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`

	ISP        string `json:"ISP"`
	Host       string `json:"host"`
	Proxy      bool   `json:"proxy"`
	VPN        bool   `json:"vpn"`
	FraudScore int    `json:"fraud_score"` // 0-100
}
