package vigor

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultUnitID Vigor 出廠的 Modbus 從站位址
const DefaultUnitID uint8 = 20

// Device Ubiflux Vigor W350/W400 的具名操作
//
// 每個方法都是一次或數次同步的暫存器存取，不快取任何值。
type Device struct {
	transport Transport
	unitID    uint8
	logger    *zap.Logger
}

// Option Device 配置選項
type Option func(*Device)

// WithUnitID 設定從站位址
func WithUnitID(id uint8) Option {
	return func(d *Device) {
		d.unitID = id
	}
}

// WithLogger 設定日誌
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// NewDevice 建立新的 Device
func NewDevice(t Transport, opts ...Option) *Device {
	d := &Device{
		transport: t,
		unitID:    DefaultUnitID,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.With(zap.Uint8("unit", d.unitID))

	return d
}

// UnitID 取得從站位址
func (d *Device) UnitID() uint8 {
	return d.unitID
}

// readWords 讀取 count 個暫存器，數量不足視為傳輸失敗
func (d *Device) readWords(op string, kind RegisterKind, address, count uint16) ([]uint16, error) {
	var (
		words []uint16
		err   error
	)
	if kind == HoldingRegister {
		words, err = d.transport.ReadHoldingRegisters(d.unitID, address, count)
	} else {
		words, err = d.transport.ReadInputRegisters(d.unitID, address, count)
	}
	if err == nil && len(words) < int(count) {
		err = fmt.Errorf("%w: 預期 %d 個，收到 %d 個", ErrShortResponse, count, len(words))
	}
	if err != nil {
		d.logger.Error("讀取暫存器失敗",
			zap.String("op", op),
			zap.Uint16("address", address),
			zap.Error(err),
		)
		return nil, &TransportError{Op: op, Address: address, Access: AccessRead, Err: err}
	}

	d.logger.Debug("讀取暫存器",
		zap.String("op", op),
		zap.Uint16("address", address),
		zap.Uint16s("words", words),
	)
	return words, nil
}

// writeWord 寫入單一保持暫存器
func (d *Device) writeWord(op string, address, value uint16) error {
	if err := d.transport.WriteRegister(d.unitID, address, value); err != nil {
		d.logger.Error("寫入暫存器失敗",
			zap.String("op", op),
			zap.Uint16("address", address),
			zap.Uint16("value", value),
			zap.Error(err),
		)
		return &TransportError{Op: op, Address: address, Access: AccessWrite, Err: err}
	}

	d.logger.Debug("寫入暫存器",
		zap.String("op", op),
		zap.Uint16("address", address),
		zap.Uint16("value", value),
	)
	return nil
}

// read 依描述讀取並解碼
func read[T any](d *Device, op string, desc Descriptor[T]) (T, error) {
	var zero T
	words, err := d.readWords(op, desc.Kind, desc.Address, desc.Count)
	if err != nil {
		return zero, err
	}
	return desc.Decode(words[:desc.Count]), nil
}

// --- 遙測 (輸入暫存器) ---

// SerialNumber 取得 12 位數序號
func (d *Device) SerialNumber() (string, error) {
	return read(d, "get_serial_number", RegSerialNumber)
}

// SupplyPressure 取得送風壓力 (Pa)
func (d *Device) SupplyPressure() (int, error) {
	return read(d, "get_supply_pressure", RegSupplyPressure)
}

// ExtractPressure 取得排風壓力 (Pa)
func (d *Device) ExtractPressure() (int, error) {
	return read(d, "get_extract_pressure", RegExtractPressure)
}

// SupplyAirflowPreset 取得送風設定風量 (m³/h)
func (d *Device) SupplyAirflowPreset() (int, error) {
	return read(d, "get_supply_airflow_preset", RegSupplyAirflowPreset)
}

// SupplyAirflowActual 取得送風實際風量 (m³/h)
func (d *Device) SupplyAirflowActual() (int, error) {
	return read(d, "get_supply_airflow_actual", RegSupplyAirflowActual)
}

// ExtractAirflowPreset 取得排風設定風量 (m³/h)
func (d *Device) ExtractAirflowPreset() (int, error) {
	return read(d, "get_extract_airflow_preset", RegExtractAirflowPreset)
}

// ExtractAirflowActual 取得排風實際風量 (m³/h)
func (d *Device) ExtractAirflowActual() (int, error) {
	return read(d, "get_extract_airflow_actual", RegExtractAirflowActual)
}

// SupplyTemperature 取得送風溫度 (°C)
func (d *Device) SupplyTemperature() (float64, error) {
	return read(d, "get_supply_temperature", RegSupplyTemperature)
}

// ExtractTemperature 取得排風溫度 (°C)
func (d *Device) ExtractTemperature() (float64, error) {
	return read(d, "get_extract_temperature", RegExtractTemperature)
}

// BypassStatus 取得旁通閥狀態
func (d *Device) BypassStatus() (BypassStatus, error) {
	return read(d, "get_bypass_status", RegBypassStatus)
}

// FilterStatus 取得濾網狀態
func (d *Device) FilterStatus() (FilterStatus, error) {
	return read(d, "get_filter_status", RegFilterStatus)
}

// --- 控制 (保持暫存器) ---

// AirflowMode 取得目前風量模式
// 控制模式為 wall_unit 或 modbus_preset 時不會讀取等級暫存器
func (d *Device) AirflowMode() (AirflowMode, error) {
	const op = "get_airflow_mode"

	control, err := read(d, op, RegControlMode)
	if err != nil {
		return AirflowMode{}, err
	}
	mode := AirflowMode{Control: control}
	if control == ControlWallUnit || control == ControlModbusPreset {
		return mode, nil
	}

	mode.Level, err = read(d, op, RegAirflowLevel)
	if err != nil {
		return AirflowMode{}, err
	}
	return mode, nil
}

// SetModbusMode 設定控制模式，暫存器已是目標值時不寫入
func (d *Device) SetModbusMode(target ControlMode) error {
	const op = "set_modbus_mode"

	if !target.Valid() {
		return fmt.Errorf("%s: %w: %d", op, ErrInvalidControlMode, target)
	}

	current, err := read(d, op, RegControlMode)
	if err != nil {
		return err
	}
	if current == target {
		d.logger.Debug("控制模式已是目標值", zap.Stringer("mode", target))
		return nil
	}

	d.logger.Info("切換控制模式",
		zap.Stringer("from", current),
		zap.Stringer("to", target),
	)
	return d.writeWord(op, RegControlMode.Address, RegControlMode.Encode(target))
}

// SetAirflowMode 設定風量等級，或交回牆面面板控制
//
// 等級只在 modbus_manual 下生效，因此會先切換控制模式；
// 等級暫存器已是目標值時不寫入。
func (d *Device) SetAirflowMode(setting AirflowSetting) error {
	const op = "set_airflow_mode"

	if setting.IsWallUnit() {
		d.logger.Info("交回牆面面板控制")
		return d.SetModbusMode(ControlWallUnit)
	}

	if err := d.SetModbusMode(ControlModbusManual); err != nil {
		return err
	}

	level := setting.Level()
	current, err := read(d, op, RegAirflowLevel)
	if err != nil {
		return err
	}
	if current == level {
		d.logger.Debug("風量等級已是目標值", zap.Stringer("level", level))
		return nil
	}

	d.logger.Info("設定風量等級", zap.Stringer("level", level))
	return d.writeWord(op, RegAirflowLevel.Address, RegAirflowLevel.Encode(level))
}

// SetAirflowRate 設定風量 (m³/h，僅 W400)
//
// 小於 50 視為 0 (關閉/自動)，大於 400 以 400 寫入。每次呼叫都會寫入。
// 不會先讀取設定風量暫存器 (8002)。
// 寫入後裝置需要短暫時間才會更新設定風量，立即讀回
// SupplyAirflowPreset 可能得到舊值。
func (d *Device) SetAirflowRate(value int) error {
	const op = "set_airflow_rate"

	if err := d.SetModbusMode(ControlModbusPreset); err != nil {
		return err
	}

	preset := RegAirflowPreset.Encode(value)
	d.logger.Info("設定風量",
		zap.Int("requested", value),
		zap.Uint16("preset", preset),
	)
	return d.writeWord(op, RegAirflowPreset.Address, preset)
}
