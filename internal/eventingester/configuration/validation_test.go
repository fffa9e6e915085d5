package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() EventIngesterConfiguration {
	return EventIngesterConfiguration{
		MetricsPort:        9002,
		ReaderCount:        4,
		ConsumerCount:      4,
		BufferCapacity:     20000,
		BatchSize:          1000,
		EnergyThresholdGev: 50.0,
		OfferTimeout:       time.Second,
		TakeTimeout:        time.Second,
		AbortGrace:         10 * time.Second,
	}
}

func TestValidConfiguration(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestInvalidConfiguration(t *testing.T) {
	tests := map[string]func(*EventIngesterConfiguration){
		"zero readers":        func(c *EventIngesterConfiguration) { c.ReaderCount = 0 },
		"negative consumers":  func(c *EventIngesterConfiguration) { c.ConsumerCount = -2 },
		"zero capacity":       func(c *EventIngesterConfiguration) { c.BufferCapacity = 0 },
		"zero batch size":     func(c *EventIngesterConfiguration) { c.BatchSize = 0 },
		"negative threshold":  func(c *EventIngesterConfiguration) { c.EnergyThresholdGev = -50.0 },
		"zero offer timeout":  func(c *EventIngesterConfiguration) { c.OfferTimeout = 0 },
		"zero take timeout":   func(c *EventIngesterConfiguration) { c.TakeTimeout = 0 },
		"zero abort grace":    func(c *EventIngesterConfiguration) { c.AbortGrace = 0 },
		"missing metric port": func(c *EventIngesterConfiguration) { c.MetricsPort = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			config := validConfig()
			mutate(&config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestZeroThresholdIsValid(t *testing.T) {
	config := validConfig()
	config.EnergyThresholdGev = 0
	assert.NoError(t, config.Validate())
}
