package aggregate

import "github.com/ppiankov/ipintel/internal/model"

// Transform merges the two provider payloads into a Record.
//
// It is pure: the same payloads always produce the same Record and the inputs
// are not modified. Both payloads must be present. A nil abuse payload (or one
// without data) or a nil quality payload is a programming error and panics.
func Transform(abuse *model.AbuseResponse, quality *model.QualityReport) model.Record {
	if abuse == nil || abuse.Data == nil {
		panic("aggregate: Transform called without an abuse report")
	}
	if quality == nil {
		panic("aggregate: Transform called without a quality report")
	}

	data := abuse.Data

	return model.Record{
		IPAddress:     data.IPAddress,
		Hostname:      hostname(data, quality),
		ISP:           isp(data, quality),
		Country:       data.CountryName,
		AbuseScore:    data.AbuseConfidenceScore,
		RecentReports: data.TotalReports,
		VPNDetected:   quality.VPN || quality.Proxy,
		ThreatScore:   quality.FraudScore,
	}
}

// hostname prefers the first AbuseIPDB hostname, then the IPQualityScore host.
// An empty string is treated as absent at both stages.
func hostname(data *model.AbuseReport, quality *model.QualityReport) *string {
	if len(data.Hostnames) > 0 && data.Hostnames[0] != "" {
		h := data.Hostnames[0]
		return &h
	}
	if quality.Host != "" {
		h := quality.Host
		return &h
	}
	return nil
}

func isp(data *model.AbuseReport, quality *model.QualityReport) string {
	if data.ISP != "" {
		return data.ISP
	}
	return quality.ISP
}
