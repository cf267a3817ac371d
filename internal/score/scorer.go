package score

import "github.com/ppiankov/ipintel/internal/model"

// Risk thresholds applied to the higher of the two provider scores
const (
	HighThreshold   = 75
	MediumThreshold = 50
	LowThreshold    = 25
)

// Scorer derives a display risk level from a record
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Assess returns the risk for record. The record itself is not modified.
func (s *Scorer) Assess(record model.Record) model.Risk {
	score := s.combined(record)

	return model.Risk{
		Level: s.determineLevel(score),
		Score: score,
	}
}

// combined takes the worse of the abuse confidence and fraud scores
func (s *Scorer) combined(record model.Record) int {
	score := max(record.AbuseScore, record.ThreatScore)
	return min(max(score, 0), 100)
}

// determineLevel maps a 0-100 score to a risk level
func (s *Scorer) determineLevel(score int) model.RiskLevel {
	switch {
	case score >= HighThreshold:
		return model.RiskHigh
	case score >= MediumThreshold:
		return model.RiskMedium
	case score >= LowThreshold:
		return model.RiskLow
	default:
		return model.RiskMinimal
	}
}
