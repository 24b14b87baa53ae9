package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"

	vigor "vigor-modbus"
)

// DefaultSerial 模擬裝置預設序號
const DefaultSerial = "000102030405"

// DefaultLevelRates 各風量段位對應的風量 (m³/h)
var DefaultLevelRates = [4]uint16{50, 100, 150, 225}

// Model 模擬 Vigor 熱回收通風機的行為
//
// 每一步先讓實際風量趨近上一步的設定值，再依控制暫存器更新設定值。
// 因此寫入控制暫存器後，設定值要到下一步才會反映。
type Model struct {
	mu sync.Mutex

	registers *RegisterMap
	scenario  ScenarioHandler
	rng       *rand.Rand
	step      uint64

	// wallLevel 牆面控制器目前選擇的段位
	wallLevel  vigor.AirflowLevel
	levelRates [4]uint16
}

// NewModel 建立模擬模型並寫入初始狀態
func NewModel(rm *RegisterMap, serial string, seed int64) (*Model, error) {
	m := &Model{
		registers:  rm,
		scenario:   GetScenarioHandler(ScenarioNormal),
		rng:        rand.New(rand.NewSource(seed)),
		wallLevel:  vigor.LevelNormal,
		levelRates: DefaultLevelRates,
	}

	words, err := encodeSerial(serial)
	if err != nil {
		return nil, err
	}
	if err := rm.SetInputRegisters(vigor.AddrSerialNumber, words); err != nil {
		return nil, err
	}

	m.Reset()
	return m, nil
}

// encodeSerial 將 12 位數序號編為 3 個 BCD 暫存器
func encodeSerial(serial string) ([]uint16, error) {
	if len(serial) != 12 {
		return nil, fmt.Errorf("序號必須為 12 位數字: %q", serial)
	}

	words := make([]uint16, 0, 3)
	for i := 0; i < len(serial); i += 4 {
		n, err := strconv.Atoi(serial[i : i+4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("序號必須為 12 位數字: %q", serial)
		}
		words = append(words, vigor.EncodeBCD(n))
	}
	return words, nil
}

// SetScenario 切換場景
func (m *Model) SetScenario(t ScenarioType) error {
	handler := GetScenarioHandler(t)
	if handler == nil {
		return fmt.Errorf("未註冊的場景: %s", t)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenario = handler
	return nil
}

// Scenario 取得當前場景
func (m *Model) Scenario() ScenarioType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenario.Type()
}

// SetWallLevel 模擬住戶操作牆面控制器
func (m *Model) SetWallLevel(level vigor.AirflowLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level > vigor.LevelHigh {
		level = vigor.LevelHigh
	}
	m.wallLevel = level
}

// Steps 已執行的步數
func (m *Model) Steps() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Reset 將風量直接設為穩態，不經過趨近過程
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.step = 0
	target := m.target()
	env := m.scenario.Environment(m.step, m.rng)
	m.apply(target, target, env)
}

// Step 推進一步
func (m *Model) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.step++
	previousPreset, _ := m.registers.ReadInputRegister(vigor.AddrSupplyAirflowPreset)
	actual, _ := m.registers.ReadInputRegister(vigor.AddrSupplyAirflowActual)

	env := m.scenario.Environment(m.step, m.rng)
	m.apply(m.target(), approach(actual, previousPreset), env)
}

// target 依控制暫存器計算目標風量
func (m *Model) target() uint16 {
	control, _ := m.registers.ReadHoldingRegisters(vigor.AddrControlMode, 3)
	mode, level, preset := control[0], control[1], control[2]

	switch vigor.ControlMode(mode) {
	case vigor.ControlModbusManual:
		if level > uint16(vigor.LevelHigh) {
			level = uint16(vigor.LevelHigh)
		}
		return m.levelRates[level]
	case vigor.ControlModbusPreset:
		if preset != 0 {
			return preset
		}
	}
	return m.levelRates[m.wallLevel]
}

// approach 實際風量每步縮短一半差距，差距小於 5 時直接到位
func approach(actual, preset uint16) uint16 {
	diff := int(preset) - int(actual)
	if diff >= -5 && diff <= 5 {
		return preset
	}
	return uint16(int(actual) + diff/2)
}

func (m *Model) apply(preset, actual uint16, env Environment) {
	supplyPressure := pressureFor(actual, 600, env.PressureFactor)
	extractPressure := pressureFor(actual, 700, 1)

	m.registers.SetInputRegister(vigor.AddrSupplyPressure, supplyPressure)
	m.registers.SetInputRegister(vigor.AddrExtractPressure, extractPressure)
	m.registers.SetInputRegister(vigor.AddrSupplyAirflowPreset, preset)
	m.registers.SetInputRegister(vigor.AddrSupplyAirflowActual, actual)
	m.registers.SetInputRegister(vigor.AddrExtractAirflowPreset, preset)
	m.registers.SetInputRegister(vigor.AddrExtractAirflowActual, actual)
	m.registers.SetInputRegister(vigor.AddrSupplyTemperature, encodeTemperature(env.SupplyTemperature))
	m.registers.SetInputRegister(vigor.AddrExtractTemperature, encodeTemperature(env.ExtractTemperature))
	m.registers.SetInputRegister(vigor.AddrBypassStatus, uint16(env.Bypass))
	m.registers.SetInputRegister(vigor.AddrFilterStatus, uint16(env.Filter))
}

// pressureFor 壓差與風量平方成正比
func pressureFor(airflow uint16, divisor, factor float64) uint16 {
	return uint16(math.Round(float64(airflow) * float64(airflow) / divisor * factor))
}

// encodeTemperature 以 0.1°C 為單位的二補數
func encodeTemperature(celsius float64) uint16 {
	return uint16(int16(math.Round(celsius * 10)))
}
