package simulator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vigor "vigor-modbus"
)

func TestScenarioType_String(t *testing.T) {
	tests := []struct {
		scenario ScenarioType
		expected string
	}{
		{ScenarioNormal, "normal"},
		{ScenarioDirtyFilter, "dirty_filter"},
		{ScenarioBypassCycle, "bypass_cycle"},
		{ScenarioWinter, "winter"},
		{ScenarioType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.scenario.String())
		})
	}
}

func TestParseScenarioType(t *testing.T) {
	for _, scenarioType := range ListScenarioTypes() {
		parsed, err := ParseScenarioType(scenarioType.String())
		require.NoError(t, err)
		assert.Equal(t, scenarioType, parsed)
	}

	_, err := ParseScenarioType("voltage_sag")
	assert.Error(t, err)
}

func TestGetScenarioHandler(t *testing.T) {
	types := ListScenarioTypes()
	assert.Len(t, types, 4)

	for _, scenarioType := range types {
		handler := GetScenarioHandler(scenarioType)
		require.NotNil(t, handler, "handler for %s should not be nil", scenarioType)
		assert.Equal(t, scenarioType, handler.Type())
	}
}

func TestNormalScenario_Environment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := uint64(0); i < 10; i++ {
		env := NormalScenario{}.Environment(i, rng)
		assert.InDelta(t, 19.5, env.SupplyTemperature, 0.2)
		assert.InDelta(t, 22.0, env.ExtractTemperature, 0.2)
		assert.Equal(t, vigor.BypassClosed, env.Bypass)
		assert.False(t, env.Filter.Dirty())
		assert.Equal(t, 1.0, env.PressureFactor)
	}
}

func TestDirtyFilterScenario_Environment(t *testing.T) {
	env := DirtyFilterScenario{}.Environment(3, rand.New(rand.NewSource(1)))

	assert.True(t, env.Filter.Dirty())
	assert.Greater(t, env.PressureFactor, 1.0)
}

func TestBypassCycleScenario_Environment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := BypassCycleScenario{}

	assert.Equal(t, vigor.BypassInitializing, s.Environment(0, rng).Bypass)
	assert.Equal(t, vigor.BypassClosed, s.Environment(1, rng).Bypass)
	assert.Equal(t, vigor.BypassOpening, s.Environment(bypassStepsPerPhase, rng).Bypass)
	assert.Equal(t, vigor.BypassOpen, s.Environment(2*bypassStepsPerPhase, rng).Bypass)
	assert.Equal(t, vigor.BypassClosing, s.Environment(3*bypassStepsPerPhase, rng).Bypass)
	assert.Equal(t, vigor.BypassClosed, s.Environment(4*bypassStepsPerPhase, rng).Bypass)

	open := s.Environment(2*bypassStepsPerPhase, rng)
	assert.InDelta(t, 16.0, open.SupplyTemperature, 0.2)
}

func TestWinterScenario_Environment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := uint64(0); i < 10; i++ {
		env := WinterScenario{}.Environment(i, rng)
		assert.Less(t, env.SupplyTemperature, 0.0, "送風溫度應低於零度")
	}
}
