package vigor

import "fmt"

// RegisterKind 暫存器類型
type RegisterKind int

const (
	// InputRegister 唯讀遙測 (FC 04)
	InputRegister RegisterKind = iota
	// HoldingRegister 可讀寫控制 (FC 03 / FC 06)
	HoldingRegister
)

func (k RegisterKind) String() string {
	switch k {
	case InputRegister:
		return "input"
	case HoldingRegister:
		return "holding"
	default:
		return "unknown"
	}
}

func (k RegisterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// 暫存器位址
const (
	AddrSerialNumber         uint16 = 4010
	AddrSupplyPressure       uint16 = 4023
	AddrExtractPressure      uint16 = 4024
	AddrSupplyAirflowPreset  uint16 = 4031
	AddrSupplyAirflowActual  uint16 = 4032
	AddrSupplyTemperature    uint16 = 4036
	AddrExtractAirflowPreset uint16 = 4041
	AddrExtractAirflowActual uint16 = 4042
	AddrExtractTemperature   uint16 = 4046
	AddrBypassStatus         uint16 = 4050
	AddrFilterStatus         uint16 = 4100

	AddrControlMode   uint16 = 8000
	AddrAirflowLevel  uint16 = 8001
	AddrAirflowPreset uint16 = 8002
)

// 風量設定範圍 (m³/h)
const (
	AirflowRateOff = 0
	AirflowRateMin = 50
	AirflowRateMax = 400
)

// Descriptor 單一暫存器的靜態描述
type Descriptor[T any] struct {
	Name    string
	Address uint16
	Count   uint16
	Kind    RegisterKind
	Unit    string
	Decode  func(words []uint16) T
	// Encode 僅保持暫存器使用
	Encode func(value T) uint16
}

// Info 取得不含編解碼函式的描述
func (d Descriptor[T]) Info() RegisterInfo {
	return RegisterInfo{
		Name:     d.Name,
		Address:  d.Address,
		Count:    d.Count,
		Kind:     d.Kind,
		Unit:     d.Unit,
		Writable: d.Encode != nil,
	}
}

// RegisterInfo 暫存器目錄項目
type RegisterInfo struct {
	Name     string       `json:"name"`
	Address  uint16       `json:"address"`
	Count    uint16       `json:"count"`
	Kind     RegisterKind `json:"kind"`
	Unit     string       `json:"unit,omitempty"`
	Writable bool         `json:"writable"`
}

func (i RegisterInfo) String() string {
	return fmt.Sprintf("%s@%d[%d] %s", i.Name, i.Address, i.Count, i.Kind)
}

// --- 解碼 ---

// DecodeSerialNumber 三個 BCD 字各補零至四位後依序串接
func DecodeSerialNumber(words []uint16) string {
	serial := ""
	for _, w := range words {
		serial += fmt.Sprintf("%04d", DecodeBCD(w))
	}
	return serial
}

// DecodeRaw 原值直接使用 (Pa, m³/h)
func DecodeRaw(words []uint16) int {
	return int(words[0])
}

// DecodeTemperature 以 int16 解讀後除以 10 (°C)
func DecodeTemperature(words []uint16) float64 {
	return float64(int16(words[0])) / 10.0
}

// ClampAirflowRate 將風量限制在 0 或 [50,400]
func ClampAirflowRate(value int) uint16 {
	switch {
	case value < AirflowRateMin:
		return AirflowRateOff
	case value > AirflowRateMax:
		return AirflowRateMax
	default:
		return uint16(value)
	}
}

func inputWord(name string, address uint16, unit string) Descriptor[int] {
	return Descriptor[int]{Name: name, Address: address, Count: 1, Kind: InputRegister, Unit: unit, Decode: DecodeRaw}
}

func inputTemperature(name string, address uint16) Descriptor[float64] {
	return Descriptor[float64]{Name: name, Address: address, Count: 1, Kind: InputRegister, Unit: "°C", Decode: DecodeTemperature}
}

// 暫存器目錄
var (
	RegSerialNumber = Descriptor[string]{
		Name: "serial_number", Address: AddrSerialNumber, Count: 3, Kind: InputRegister,
		Decode: DecodeSerialNumber,
	}

	// 文件記載單位為 0.1 Pa，實測為 Pa，原值直接使用
	RegSupplyPressure  = inputWord("supply_pressure", AddrSupplyPressure, "Pa")
	RegExtractPressure = inputWord("extract_pressure", AddrExtractPressure, "Pa")

	RegSupplyAirflowPreset  = inputWord("supply_airflow_preset", AddrSupplyAirflowPreset, "m³/h")
	RegSupplyAirflowActual  = inputWord("supply_airflow_actual", AddrSupplyAirflowActual, "m³/h")
	RegExtractAirflowPreset = inputWord("extract_airflow_preset", AddrExtractAirflowPreset, "m³/h")
	RegExtractAirflowActual = inputWord("extract_airflow_actual", AddrExtractAirflowActual, "m³/h")

	RegSupplyTemperature  = inputTemperature("supply_temperature", AddrSupplyTemperature)
	RegExtractTemperature = inputTemperature("extract_temperature", AddrExtractTemperature)

	RegBypassStatus = Descriptor[BypassStatus]{
		Name: "bypass_status", Address: AddrBypassStatus, Count: 1, Kind: InputRegister,
		Decode: func(words []uint16) BypassStatus { return BypassStatus(words[0]) },
	}
	RegFilterStatus = Descriptor[FilterStatus]{
		Name: "filter_status", Address: AddrFilterStatus, Count: 1, Kind: InputRegister,
		Decode: func(words []uint16) FilterStatus { return FilterStatus(words[0]) },
	}

	RegControlMode = Descriptor[ControlMode]{
		Name: "control_mode", Address: AddrControlMode, Count: 1, Kind: HoldingRegister,
		Decode: func(words []uint16) ControlMode { return ControlMode(words[0]) },
		Encode: func(m ControlMode) uint16 { return uint16(m) },
	}
	RegAirflowLevel = Descriptor[AirflowLevel]{
		Name: "airflow_level", Address: AddrAirflowLevel, Count: 1, Kind: HoldingRegister,
		Decode: func(words []uint16) AirflowLevel { return AirflowLevel(words[0]) },
		Encode: func(l AirflowLevel) uint16 { return uint16(l) },
	}
	RegAirflowPreset = Descriptor[int]{
		Name: "airflow_preset", Address: AddrAirflowPreset, Count: 1, Kind: HoldingRegister, Unit: "m³/h",
		Decode: DecodeRaw,
		Encode: ClampAirflowRate,
	}
)

// Registers 列出所有暫存器描述 (依位址排序)
func Registers() []RegisterInfo {
	return []RegisterInfo{
		RegSerialNumber.Info(),
		RegSupplyPressure.Info(),
		RegExtractPressure.Info(),
		RegSupplyAirflowPreset.Info(),
		RegSupplyAirflowActual.Info(),
		RegSupplyTemperature.Info(),
		RegExtractAirflowPreset.Info(),
		RegExtractAirflowActual.Info(),
		RegExtractTemperature.Info(),
		RegBypassStatus.Info(),
		RegFilterStatus.Info(),
		RegControlMode.Info(),
		RegAirflowLevel.Info(),
		RegAirflowPreset.Info(),
	}
}
