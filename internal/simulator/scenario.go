package simulator

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	vigor "vigor-modbus"
)

// ScenarioType 場景類型
type ScenarioType int

const (
	ScenarioNormal ScenarioType = iota
	ScenarioDirtyFilter
	ScenarioBypassCycle
	ScenarioWinter
)

var scenarioNames = map[ScenarioType]string{
	ScenarioNormal:      "normal",
	ScenarioDirtyFilter: "dirty_filter",
	ScenarioBypassCycle: "bypass_cycle",
	ScenarioWinter:      "winter",
}

func (s ScenarioType) String() string {
	if name, ok := scenarioNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseScenarioType 解析場景類型
func ParseScenarioType(s string) (ScenarioType, error) {
	for t, name := range scenarioNames {
		if name == s {
			return t, nil
		}
	}
	return ScenarioNormal, fmt.Errorf("未知的場景: %q", s)
}

// Environment 單一步驟的環境狀態
type Environment struct {
	SupplyTemperature  float64
	ExtractTemperature float64
	Bypass             vigor.BypassStatus
	Filter             vigor.FilterStatus
	// PressureFactor 送風壓差倍率，濾網阻塞時大於 1
	PressureFactor float64
}

// ScenarioHandler 場景處理介面
type ScenarioHandler interface {
	Type() ScenarioType
	Environment(step uint64, rng *rand.Rand) Environment
}

// 場景處理器註冊表
var (
	scenarioHandlers   = make(map[ScenarioType]ScenarioHandler)
	scenarioHandlersMu sync.RWMutex
)

func init() {
	RegisterScenarioHandler(NormalScenario{})
	RegisterScenarioHandler(DirtyFilterScenario{})
	RegisterScenarioHandler(BypassCycleScenario{})
	RegisterScenarioHandler(WinterScenario{})
}

// RegisterScenarioHandler 註冊場景處理器
func RegisterScenarioHandler(handler ScenarioHandler) {
	scenarioHandlersMu.Lock()
	defer scenarioHandlersMu.Unlock()
	scenarioHandlers[handler.Type()] = handler
}

// GetScenarioHandler 取得場景處理器
func GetScenarioHandler(scenarioType ScenarioType) ScenarioHandler {
	scenarioHandlersMu.RLock()
	defer scenarioHandlersMu.RUnlock()
	return scenarioHandlers[scenarioType]
}

// ListScenarioTypes 列出所有場景類型
func ListScenarioTypes() []ScenarioType {
	scenarioHandlersMu.RLock()
	defer scenarioHandlersMu.RUnlock()

	types := make([]ScenarioType, 0, len(scenarioHandlers))
	for t := range scenarioHandlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// jitter 回傳 ±amplitude 的隨機偏移
func jitter(rng *rand.Rand, amplitude float64) float64 {
	return (rng.Float64()*2 - 1) * amplitude
}

// --- Normal Scenario ---

// NormalScenario 正常場景 - 溫度小幅波動
type NormalScenario struct{}

func (NormalScenario) Type() ScenarioType {
	return ScenarioNormal
}

func (NormalScenario) Environment(_ uint64, rng *rand.Rand) Environment {
	return Environment{
		SupplyTemperature:  19.5 + jitter(rng, 0.2),
		ExtractTemperature: 22.0 + jitter(rng, 0.2),
		Bypass:             vigor.BypassClosed,
		Filter:             0,
		PressureFactor:     1,
	}
}

// --- Dirty Filter Scenario ---

// DirtyFilterScenario 濾網阻塞場景
type DirtyFilterScenario struct {
	normal NormalScenario
}

func (DirtyFilterScenario) Type() ScenarioType {
	return ScenarioDirtyFilter
}

func (s DirtyFilterScenario) Environment(step uint64, rng *rand.Rand) Environment {
	env := s.normal.Environment(step, rng)
	env.Filter = vigor.FilterDirty
	env.PressureFactor = 1.6
	return env
}

// --- Bypass Cycle Scenario ---

// bypassStepsPerPhase 旁通閥每個狀態停留的步數
const bypassStepsPerPhase = 5

var bypassCycle = []vigor.BypassStatus{
	vigor.BypassClosed,
	vigor.BypassOpening,
	vigor.BypassOpen,
	vigor.BypassClosing,
}

// BypassCycleScenario 旁通閥循環開關場景 (夏季夜間)
type BypassCycleScenario struct {
	normal NormalScenario
}

func (BypassCycleScenario) Type() ScenarioType {
	return ScenarioBypassCycle
}

func (s BypassCycleScenario) Environment(step uint64, rng *rand.Rand) Environment {
	env := s.normal.Environment(step, rng)
	if step == 0 {
		env.Bypass = vigor.BypassInitializing
		return env
	}

	env.Bypass = bypassCycle[(step/bypassStepsPerPhase)%uint64(len(bypassCycle))]
	if env.Bypass == vigor.BypassOpen {
		// 旁通時送風不經熱交換
		env.SupplyTemperature = 16.0 + jitter(rng, 0.2)
	}
	return env
}

// --- Winter Scenario ---

// WinterScenario 冬季場景，送風溫度低於零度
type WinterScenario struct{}

func (WinterScenario) Type() ScenarioType {
	return ScenarioWinter
}

func (WinterScenario) Environment(_ uint64, rng *rand.Rand) Environment {
	return Environment{
		SupplyTemperature:  -4.5 + jitter(rng, 0.3),
		ExtractTemperature: 20.5 + jitter(rng, 0.2),
		Bypass:             vigor.BypassClosed,
		Filter:             0,
		PressureFactor:     1,
	}
}
