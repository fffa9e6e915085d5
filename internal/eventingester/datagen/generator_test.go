package datagen

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadronproject/hadron/internal/eventingester/parser"
)

func TestGeneratedEventsParse(t *testing.T) {
	g := NewGenerator(42)
	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf, 100))

	scanner := bufio.NewScanner(&buf)
	require.True(t, scanner.Scan())
	assert.Equal(t, parser.Header, scanner.Text())

	lines := 0
	for scanner.Scan() {
		event, err := parser.Parse(scanner.Text())
		require.NoError(t, err, "line %d did not parse", lines+2)
		assert.NoError(t, event.Validate())
		assert.GreaterOrEqual(t, event.EnergyGev, 0.1)
		assert.LessOrEqual(t, event.EnergyGev, 125.1)
		lines++
	}
	assert.Equal(t, 100, lines)
}

func TestGeneratorIsDeterministicPerSeed(t *testing.T) {
	first := NewGenerator(7)
	second := NewGenerator(7)
	assert.Equal(t, first.Event().EnergyGev, second.Event().EnergyGev)
}

func TestGeneratorCoversBothSidesOfThreshold(t *testing.T) {
	g := NewGenerator(1)
	high, low := 0, 0
	for i := 0; i < 1000; i++ {
		if g.Event().EnergyGev > 50.0 {
			high++
		} else {
			low++
		}
	}
	assert.Greater(t, high, 0)
	assert.Greater(t, low, 0)
}
