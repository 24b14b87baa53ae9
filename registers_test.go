package vigor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSerialNumber(t *testing.T) {
	assert.Equal(t, "000102030405", DecodeSerialNumber([]uint16{0x0001, 0x0203, 0x0405}))
	assert.Equal(t, "123456789012", DecodeSerialNumber([]uint16{0x1234, 0x5678, 0x9012}))
}

func TestDecodeTemperature(t *testing.T) {
	assert.InDelta(t, 21.5, DecodeTemperature([]uint16{215}), 1e-9)
	assert.InDelta(t, 0.0, DecodeTemperature([]uint16{0}), 1e-9)
	assert.InDelta(t, -0.5, DecodeTemperature([]uint16{0xFFFB}), 1e-9)
	assert.InDelta(t, -12.3, DecodeTemperature([]uint16{uint16(0x10000 - 123)}), 1e-9)
}

func TestClampAirflowRate(t *testing.T) {
	tests := []struct {
		input    int
		expected uint16
	}{
		{-10, 0},
		{0, 0},
		{10, 0},
		{49, 0},
		{50, 50},
		{200, 200},
		{400, 400},
		{401, 400},
		{500, 400},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClampAirflowRate(tt.input), "ClampAirflowRate(%d)", tt.input)
	}
}

func TestRegisters_Catalog(t *testing.T) {
	regs := Registers()
	assert.Len(t, regs, 14)

	seen := make(map[uint16]string)
	for _, r := range regs {
		if prev, ok := seen[r.Address]; ok {
			t.Fatalf("位址 %d 重複: %s / %s", r.Address, prev, r.Name)
		}
		seen[r.Address] = r.Name

		assert.GreaterOrEqual(t, r.Count, uint16(1))
		assert.LessOrEqual(t, r.Count, uint16(3))
		if r.Kind == InputRegister {
			assert.False(t, r.Writable, r.Name)
			assert.Less(t, r.Address, uint16(8000), r.Name)
		} else {
			assert.True(t, r.Writable, r.Name)
		}
	}

	assert.Equal(t, uint16(3), RegSerialNumber.Count)
	assert.Equal(t, "Pa", RegSupplyPressure.Unit)
	assert.Equal(t, "holding", RegControlMode.Info().Kind.String())
}
