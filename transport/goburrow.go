package transport

import (
	"fmt"
	"strings"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"
)

// Goburrow 使用 github.com/goburrow/modbus 的傳輸 (tcp, rtu)
type Goburrow struct {
	client  modbus.Client
	setUnit func(id byte)
	close   func() error
	logger  *zap.Logger
}

// NewGoburrow 建立並連線
func NewGoburrow(cfg Config, logger *zap.Logger) (*Goburrow, error) {
	ep, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	g := &Goburrow{logger: logger}

	var handler modbus.ClientHandler
	switch ep.scheme {
	case SchemeTCP:
		h := modbus.NewTCPClientHandler(ep.address)
		h.Timeout = cfg.Timeout
		if logger.Core().Enabled(zap.DebugLevel) {
			h.Logger, _ = zap.NewStdLogAt(logger.Named("goburrow"), zap.DebugLevel)
		}
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("連線 %s 失敗: %w", ep.address, err)
		}
		g.setUnit = func(id byte) { h.SlaveId = id }
		g.close = h.Close
		handler = h

	case SchemeRTU:
		h := modbus.NewRTUClientHandler(ep.address)
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = strings.ToUpper(cfg.Parity)
		h.StopBits = cfg.StopBits
		h.Timeout = cfg.Timeout
		if logger.Core().Enabled(zap.DebugLevel) {
			h.Logger, _ = zap.NewStdLogAt(logger.Named("goburrow"), zap.DebugLevel)
		}
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("開啟序列埠 %s 失敗: %w", ep.address, err)
		}
		g.setUnit = func(id byte) { h.SlaveId = id }
		g.close = h.Close
		handler = h

	default:
		return nil, fmt.Errorf("goburrow 驅動不支援 %s", ep.scheme)
	}

	g.client = modbus.NewClient(handler)
	return g, nil
}

// ReadInputRegisters 讀取輸入暫存器 (FC 04)
func (g *Goburrow) ReadInputRegisters(unit uint8, address, quantity uint16) ([]uint16, error) {
	g.setUnit(unit)
	data, err := g.client.ReadInputRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return wordsFromBytes(data), nil
}

// ReadHoldingRegisters 讀取保持暫存器 (FC 03)
func (g *Goburrow) ReadHoldingRegisters(unit uint8, address, quantity uint16) ([]uint16, error) {
	g.setUnit(unit)
	data, err := g.client.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return wordsFromBytes(data), nil
}

// WriteRegister 寫入單一保持暫存器 (FC 06)
func (g *Goburrow) WriteRegister(unit uint8, address, value uint16) error {
	g.setUnit(unit)
	_, err := g.client.WriteSingleRegister(address, value)
	return err
}

// Close 關閉連線
func (g *Goburrow) Close() error {
	return g.close()
}
