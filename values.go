package vigor

import (
	"fmt"
	"strconv"
	"strings"
)

// unknownLabel 未對應代碼的標籤
func unknownLabel(code uint16) string {
	return fmt.Sprintf("unknown(%d)", code)
}

// BypassStatus 旁通閥狀態
type BypassStatus uint16

const (
	BypassInitializing BypassStatus = iota
	BypassOpening
	BypassClosing
	BypassOpen
	BypassClosed
)

var bypassLabels = map[BypassStatus]string{
	BypassInitializing: "initializing",
	BypassOpening:      "opening",
	BypassClosing:      "closing",
	BypassOpen:         "open",
	BypassClosed:       "closed",
}

func (b BypassStatus) String() string {
	if label, ok := bypassLabels[b]; ok {
		return label
	}
	return unknownLabel(uint16(b))
}

func (b BypassStatus) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// FilterStatus 濾網狀態 (1 = 需更換，其餘皆視為正常)
type FilterStatus uint16

const FilterDirty FilterStatus = 1

// Dirty 回報濾網是否需要更換
func (f FilterStatus) Dirty() bool {
	return f == FilterDirty
}

func (f FilterStatus) String() string {
	if f.Dirty() {
		return "dirty"
	}
	return "normal"
}

func (f FilterStatus) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ControlMode 控制模式暫存器 (8000) 的值
type ControlMode uint16

const (
	// ControlWallUnit 裝置忽略 Modbus，由牆面面板控制
	ControlWallUnit ControlMode = iota
	// ControlModbusManual Modbus 可設定離散風量等級 (8001)
	ControlModbusManual
	// ControlModbusPreset Modbus 可設定數值風量 (8002)
	ControlModbusPreset
)

func (m ControlMode) Valid() bool {
	return m <= ControlModbusPreset
}

func (m ControlMode) String() string {
	switch m {
	case ControlWallUnit:
		return "wall_unit"
	case ControlModbusManual:
		return "modbus_manual"
	case ControlModbusPreset:
		return "modbus_preset"
	default:
		return unknownLabel(uint16(m))
	}
}

func (m ControlMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseControlMode 解析控制模式名稱或數字
func ParseControlMode(s string) (ControlMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range []ControlMode{ControlWallUnit, ControlModbusManual, ControlModbusPreset} {
		if s == m.String() {
			return m, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && ControlMode(n).Valid() {
		return ControlMode(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidControlMode, s)
}

// AirflowLevel 風量等級暫存器 (8001) 的值，僅在 ControlModbusManual 下有效
type AirflowLevel uint16

const (
	LevelHoliday AirflowLevel = iota
	LevelLow
	LevelNormal
	LevelHigh
)

var levelLabels = []string{"holiday", "low", "normal", "high"}

func (l AirflowLevel) String() string {
	if int(l) < len(levelLabels) {
		return levelLabels[l]
	}
	return unknownLabel(uint16(l))
}

func (l AirflowLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseAirflowLevel 解析風量等級標籤
func ParseAirflowLevel(s string) (AirflowLevel, bool) {
	for i, label := range levelLabels {
		if s == label {
			return AirflowLevel(i), true
		}
	}
	return 0, false
}

// AirflowMode 目前的風量模式 (8000 + 8001 組合)
type AirflowMode struct {
	Control ControlMode
	// Level 僅在控制模式不是 wall_unit 或 modbus_preset 時讀取
	Level AirflowLevel
}

func (m AirflowMode) String() string {
	switch m.Control {
	case ControlWallUnit:
		return "wall_unit"
	case ControlModbusPreset:
		return "custom_value"
	default:
		return m.Level.String()
	}
}

func (m AirflowMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// AirflowSetting SetAirflowMode 的輸入：等級或回到牆面面板
type AirflowSetting struct {
	wallUnit bool
	level    AirflowLevel
}

// WallUnit 交回牆面面板控制
func WallUnit() AirflowSetting {
	return AirflowSetting{wallUnit: true}
}

// Level 以數字指定等級，限制在 [0,3]
func Level(n int) AirflowSetting {
	switch {
	case n < int(LevelHoliday):
		n = int(LevelHoliday)
	case n > int(LevelHigh):
		n = int(LevelHigh)
	}
	return AirflowSetting{level: AirflowLevel(n)}
}

// LevelOf 以標籤常數指定等級
func LevelOf(l AirflowLevel) AirflowSetting {
	return Level(int(l))
}

// ParseAirflowSetting 解析數字、等級標籤或 "wall_unit"
func ParseAirflowSetting(s string) (AirflowSetting, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "wall_unit" {
		return WallUnit(), nil
	}
	if l, ok := ParseAirflowLevel(s); ok {
		return LevelOf(l), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Level(n), nil
	}
	return AirflowSetting{}, fmt.Errorf("%w: %q", ErrUnknownAirflowMode, s)
}

// IsWallUnit 是否為交回牆面面板
func (s AirflowSetting) IsWallUnit() bool {
	return s.wallUnit
}

// Level 回傳要寫入的等級 (IsWallUnit 時無意義)
func (s AirflowSetting) Level() AirflowLevel {
	return s.level
}

func (s AirflowSetting) String() string {
	if s.wallUnit {
		return "wall_unit"
	}
	return s.level.String()
}
