package simulator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vigor "vigor-modbus"
)

func TestDefaultRegisterMap(t *testing.T) {
	rm := DefaultRegisterMap()

	mode, err := rm.ReadHoldingRegister(vigor.AddrControlMode)
	require.NoError(t, err)
	assert.Equal(t, uint16(vigor.ControlWallUnit), mode)

	for _, addr := range []uint16{vigor.AddrControlMode, vigor.AddrAirflowLevel, vigor.AddrAirflowPreset} {
		meta, ok := rm.GetDefinition(addr)
		require.True(t, ok, "address %d should be defined", addr)
		assert.True(t, meta.Writable)
	}

	_, ok := rm.GetDefinition(vigor.AddrSupplyTemperature)
	assert.False(t, ok)
}

func TestRegisterMap_InputRegisters(t *testing.T) {
	rm := NewRegisterMap(100, 100)

	// 設定輸入暫存器
	err := rm.SetInputRegister(0, 0x5678)
	require.NoError(t, err)

	// 讀取輸入暫存器
	val, err := rm.ReadInputRegister(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x5678), val)

	// 設定多個輸入暫存器
	err = rm.SetInputRegisters(10, []uint16{1, 2, 3})
	require.NoError(t, err)

	values, err := rm.ReadInputRegisters(10, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, values)
}

func TestRegisterMap_WriteHoldingRegister(t *testing.T) {
	rm := DefaultRegisterMap()

	tests := []struct {
		name    string
		address uint16
		value   uint16
		wantErr error
	}{
		{"control mode", vigor.AddrControlMode, 2, nil},
		{"control mode out of range", vigor.AddrControlMode, 3, ErrValueOutOfRange},
		{"airflow level", vigor.AddrAirflowLevel, 3, nil},
		{"airflow level out of range", vigor.AddrAirflowLevel, 4, ErrValueOutOfRange},
		{"airflow preset max", vigor.AddrAirflowPreset, 400, nil},
		{"airflow preset too high", vigor.AddrAirflowPreset, 401, ErrValueOutOfRange},
		{"undefined register", 9000, 1, ErrReadOnly},
		{"out of bounds", 50000, 1, ErrAddressOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rm.WriteHoldingRegister(tt.address, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			val, err := rm.ReadHoldingRegister(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.value, val)
		})
	}
}

func TestRegisterMap_OutOfBounds(t *testing.T) {
	rm := NewRegisterMap(10, 10)

	_, err := rm.ReadInputRegister(100)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)

	_, err = rm.ReadInputRegisters(8, 3)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)

	_, err = rm.ReadHoldingRegister(50000)
	assert.ErrorIs(t, err, ErrAddressOutOfRange)

	assert.ErrorIs(t, rm.SetInputRegisters(9, []uint16{1, 2}), ErrAddressOutOfRange)
	assert.ErrorIs(t, rm.SetHoldingRegister(10, 1), ErrAddressOutOfRange)
}

func TestRegisterMap_Concurrent(t *testing.T) {
	rm := DefaultRegisterMap()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rm.WriteHoldingRegister(vigor.AddrAirflowPreset, uint16(idx))
			rm.ReadHoldingRegisters(vigor.AddrControlMode, 3)
			rm.SetInputRegister(vigor.AddrSupplyAirflowActual, uint16(idx))
		}(i)
	}
	wg.Wait()
}

func TestRegistersToBytes(t *testing.T) {
	registers := []uint16{0x0102, 0x0304}
	bytes := RegistersToBytes(registers)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, bytes)
}

func TestBytesToRegisters(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	registers := BytesToRegisters(data)
	assert.Equal(t, []uint16{0x0102, 0x0304}, registers)
}

func BenchmarkRegisterMap_ReadInputRegisters(b *testing.B) {
	rm := DefaultRegisterMap()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rm.ReadInputRegisters(vigor.AddrSerialNumber, 3)
	}
}
