package simulator

import (
	"encoding/binary"
	"fmt"
	"sync"

	vigor "vigor-modbus"
)

// RegisterSpace 暫存器空間大小 (位址 0-9999)
const RegisterSpace = 10000

// RegisterMap 線程安全的暫存器映射表
//
// 位址直接對應 PDU 位址，不做 30001/40001 偏移。
type RegisterMap struct {
	mu sync.RWMutex

	inputRegisters   []uint16 // 3x - Input Registers
	holdingRegisters []uint16 // 4x - Holding Registers

	// 可寫入的保持暫存器
	definitions map[uint16]*RegisterMeta
}

// RegisterMeta 暫存器元資料
type RegisterMeta struct {
	Address  uint16
	Name     string
	Writable bool
	MinValue uint16
	MaxValue uint16
}

// Accepts 檢查寫入值是否在允許範圍內
func (m *RegisterMeta) Accepts(value uint16) bool {
	return m.Writable && value >= m.MinValue && value <= m.MaxValue
}

// NewRegisterMap 建立新的暫存器映射表
func NewRegisterMap(inputSize, holdingSize int) *RegisterMap {
	return &RegisterMap{
		inputRegisters:   make([]uint16, inputSize),
		holdingRegisters: make([]uint16, holdingSize),
		definitions:      make(map[uint16]*RegisterMeta),
	}
}

// DefaultRegisterMap 建立 Vigor 預設暫存器映射表
func DefaultRegisterMap() *RegisterMap {
	rm := NewRegisterMap(RegisterSpace, RegisterSpace)

	rm.DefineRegister(vigor.AddrControlMode, vigor.RegControlMode.Name, 0, 2)
	rm.DefineRegister(vigor.AddrAirflowLevel, vigor.RegAirflowLevel.Name, 0, 3)
	rm.DefineRegister(vigor.AddrAirflowPreset, vigor.RegAirflowPreset.Name, vigor.AirflowRateOff, vigor.AirflowRateMax)

	// 出廠狀態: 由牆面控制器控制
	rm.holdingRegisters[vigor.AddrControlMode] = uint16(vigor.ControlWallUnit)
	rm.holdingRegisters[vigor.AddrAirflowLevel] = uint16(vigor.LevelNormal)

	return rm
}

// DefineRegister 定義可寫入的保持暫存器
func (rm *RegisterMap) DefineRegister(address uint16, name string, min, max uint16) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.definitions[address] = &RegisterMeta{
		Address:  address,
		Name:     name,
		Writable: true,
		MinValue: min,
		MaxValue: max,
	}
}

// GetDefinition 取得暫存器定義
func (rm *RegisterMap) GetDefinition(address uint16) (*RegisterMeta, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	meta, ok := rm.definitions[address]
	return meta, ok
}

// --- Input Registers (3x) ---

// ReadInputRegister 讀取單一輸入暫存器
func (rm *RegisterMap) ReadInputRegister(address uint16) (uint16, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if int(address) >= len(rm.inputRegisters) {
		return 0, fmt.Errorf("%w: 輸入暫存器 %d", ErrAddressOutOfRange, address)
	}
	return rm.inputRegisters[address], nil
}

// ReadInputRegisters 讀取多個輸入暫存器
func (rm *RegisterMap) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return readRange(rm.inputRegisters, "輸入暫存器", address, quantity)
}

// SetInputRegister 設定輸入暫存器 (內部用)
func (rm *RegisterMap) SetInputRegister(address uint16, value uint16) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if int(address) >= len(rm.inputRegisters) {
		return fmt.Errorf("%w: 輸入暫存器 %d", ErrAddressOutOfRange, address)
	}
	rm.inputRegisters[address] = value
	return nil
}

// SetInputRegisters 設定連續輸入暫存器 (內部用)
func (rm *RegisterMap) SetInputRegisters(address uint16, values []uint16) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	end := int(address) + len(values)
	if end > len(rm.inputRegisters) {
		return fmt.Errorf("%w: 輸入暫存器 %d-%d", ErrAddressOutOfRange, address, end-1)
	}
	copy(rm.inputRegisters[address:end], values)
	return nil
}

// --- Holding Registers (4x) ---

// ReadHoldingRegister 讀取單一保持暫存器
func (rm *RegisterMap) ReadHoldingRegister(address uint16) (uint16, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if int(address) >= len(rm.holdingRegisters) {
		return 0, fmt.Errorf("%w: 保持暫存器 %d", ErrAddressOutOfRange, address)
	}
	return rm.holdingRegisters[address], nil
}

// ReadHoldingRegisters 讀取多個保持暫存器
func (rm *RegisterMap) ReadHoldingRegisters(address uint16, quantity uint16) ([]uint16, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return readRange(rm.holdingRegisters, "保持暫存器", address, quantity)
}

// WriteHoldingRegister 寫入單一保持暫存器
//
// 只接受已定義且在範圍內的值。
func (rm *RegisterMap) WriteHoldingRegister(address uint16, value uint16) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if int(address) >= len(rm.holdingRegisters) {
		return fmt.Errorf("%w: 保持暫存器 %d", ErrAddressOutOfRange, address)
	}
	meta, ok := rm.definitions[address]
	if !ok || !meta.Writable {
		return fmt.Errorf("%w: %d", ErrReadOnly, address)
	}
	if !meta.Accepts(value) {
		return fmt.Errorf("%w: %s=%d (允許 %d-%d)", ErrValueOutOfRange, meta.Name, value, meta.MinValue, meta.MaxValue)
	}
	rm.holdingRegisters[address] = value
	return nil
}

// SetHoldingRegister 設定保持暫存器，不檢查定義 (內部用)
func (rm *RegisterMap) SetHoldingRegister(address uint16, value uint16) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if int(address) >= len(rm.holdingRegisters) {
		return fmt.Errorf("%w: 保持暫存器 %d", ErrAddressOutOfRange, address)
	}
	rm.holdingRegisters[address] = value
	return nil
}

func readRange(words []uint16, kind string, address, quantity uint16) ([]uint16, error) {
	end := int(address) + int(quantity)
	if end > len(words) {
		return nil, fmt.Errorf("%w: %s %d-%d", ErrAddressOutOfRange, kind, address, end-1)
	}

	result := make([]uint16, quantity)
	copy(result, words[address:end])
	return result, nil
}

// RegistersToBytes 將暫存器值轉換為位元組陣列 (Big Endian)
func RegistersToBytes(registers []uint16) []byte {
	bytes := make([]byte, len(registers)*2)
	for i, reg := range registers {
		binary.BigEndian.PutUint16(bytes[i*2:], reg)
	}
	return bytes
}

// BytesToRegisters 將位元組陣列轉換為暫存器值 (Big Endian)
func BytesToRegisters(data []byte) []uint16 {
	registers := make([]uint16, len(data)/2)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return registers
}
