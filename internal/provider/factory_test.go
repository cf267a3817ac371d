package provider

import (
	"testing"

	"github.com/ppiankov/ipintel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClients(t *testing.T) {
	cfg := model.DefaultConfig().Providers
	cfg.AbuseIPDB.APIKey = "abuse-key"
	cfg.IPQualityScore.APIKey = "ipqs-key"

	clients, err := NewClients(cfg, Options{})
	require.NoError(t, err)
	assert.Equal(t, "AbuseIPDB", clients.Abuse.Name())
	assert.Equal(t, "IPQualityScore", clients.Quality.Name())
	assert.Equal(t, 90, clients.Abuse.maxAgeInDays)
}

func TestNewClients_MissingKey(t *testing.T) {
	cfg := model.DefaultConfig().Providers
	cfg.AbuseIPDB.APIKey = "abuse-key"

	clients, err := NewClients(cfg, Options{})
	assert.Nil(t, clients)
	assert.ErrorIs(t, err, ErrMissingIPQualityScoreKey)
}
