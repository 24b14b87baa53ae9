package transport

import (
	"fmt"
	"strings"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// Simonvetter 使用 github.com/simonvetter/modbus 的傳輸 (tcp, rtu, rtuovertcp)
//
// rtuovertcp 適用 ser2net 之類把序列埠原樣轉到 TCP 的橋接器。
type Simonvetter struct {
	client *modbus.ModbusClient
	logger *zap.Logger
}

func parity(p string) uint {
	switch strings.ToUpper(p) {
	case "E":
		return modbus.PARITY_EVEN
	case "O":
		return modbus.PARITY_ODD
	default:
		return modbus.PARITY_NONE
	}
}

// NewSimonvetter 建立並開啟
func NewSimonvetter(cfg Config, logger *zap.Logger) (*Simonvetter, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      cfg.URL,
		Speed:    uint(cfg.BaudRate),
		DataBits: uint(cfg.DataBits),
		Parity:   parity(cfg.Parity),
		StopBits: uint(cfg.StopBits),
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("建立客戶端失敗: %w", err)
	}

	if err := client.Open(); err != nil {
		return nil, fmt.Errorf("開啟 %s 失敗: %w", cfg.URL, err)
	}

	return &Simonvetter{client: client, logger: logger}, nil
}

func (s *Simonvetter) readRegisters(unit uint8, address, quantity uint16, regType modbus.RegType) ([]uint16, error) {
	if err := s.client.SetUnitId(unit); err != nil {
		return nil, err
	}
	return s.client.ReadRegisters(address, quantity, regType)
}

// ReadInputRegisters 讀取輸入暫存器 (FC 04)
func (s *Simonvetter) ReadInputRegisters(unit uint8, address, quantity uint16) ([]uint16, error) {
	return s.readRegisters(unit, address, quantity, modbus.INPUT_REGISTER)
}

// ReadHoldingRegisters 讀取保持暫存器 (FC 03)
func (s *Simonvetter) ReadHoldingRegisters(unit uint8, address, quantity uint16) ([]uint16, error) {
	return s.readRegisters(unit, address, quantity, modbus.HOLDING_REGISTER)
}

// WriteRegister 寫入單一保持暫存器 (FC 06)
func (s *Simonvetter) WriteRegister(unit uint8, address, value uint16) error {
	if err := s.client.SetUnitId(unit); err != nil {
		return err
	}
	return s.client.WriteRegister(address, value)
}

// Close 關閉連線
func (s *Simonvetter) Close() error {
	return s.client.Close()
}
