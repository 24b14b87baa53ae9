package simulator

import (
	"encoding/binary"

	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"
)

// registerHandlers 以暫存器映射表取代 mbserver 內建的處理器
func (s *Server) registerHandlers() {
	s.server.RegisterFunctionHandler(FuncCodeReadHoldingRegisters, s.handleReadHoldingRegisters)
	s.server.RegisterFunctionHandler(FuncCodeReadInputRegisters, s.handleReadInputRegisters)
	s.server.RegisterFunctionHandler(FuncCodeWriteSingleRegister, s.handleWriteSingleRegister)
	for _, fc := range unsupportedFunctions {
		s.server.RegisterFunctionHandler(fc, s.handleUnsupported)
	}
}

// addressAndQuantity 解析請求的前 4 個位元組
func addressAndQuantity(frame mbserver.Framer) (uint16, uint16, bool) {
	data := frame.GetData()
	if len(data) < 4 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint16(data[0:2]), binary.BigEndian.Uint16(data[2:4]), true
}

// handleReadHoldingRegisters 處理讀取保持暫存器請求 (FC 03)
func (s *Server) handleReadHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	return s.handleRead(frame, "讀取保持暫存器失敗", s.registers.ReadHoldingRegisters)
}

// handleReadInputRegisters 處理讀取輸入暫存器請求 (FC 04)
func (s *Server) handleReadInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	return s.handleRead(frame, "讀取輸入暫存器失敗", s.registers.ReadInputRegisters)
}

func (s *Server) handleRead(
	frame mbserver.Framer,
	failure string,
	read func(address, quantity uint16) ([]uint16, error),
) ([]byte, *mbserver.Exception) {
	address, quantity, ok := addressAndQuantity(frame)
	if !ok || quantity == 0 || quantity > MaxRegistersPerRead {
		s.recordRequest(true)
		return []byte{}, &mbserver.IllegalDataValue
	}

	registers, err := read(address, quantity)
	if err != nil {
		s.recordRequest(true)
		s.logger.Debug(failure,
			zap.Uint16("address", address),
			zap.Uint16("quantity", quantity),
			zap.Error(err),
		)
		return []byte{}, exceptionFor(err)
	}

	s.recordRequest(false)
	return append([]byte{byte(quantity * 2)}, RegistersToBytes(registers)...), &mbserver.Success
}

// handleWriteSingleRegister 處理寫入單一暫存器請求 (FC 06)
func (s *Server) handleWriteSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	address, value, ok := addressAndQuantity(frame)
	if !ok {
		s.recordRequest(true)
		return []byte{}, &mbserver.IllegalDataValue
	}

	if err := s.registers.WriteHoldingRegister(address, value); err != nil {
		s.recordRequest(true)
		s.logger.Debug("寫入暫存器失敗",
			zap.Uint16("address", address),
			zap.Uint16("value", value),
			zap.Error(err),
		)
		return []byte{}, exceptionFor(err)
	}

	s.recordRequest(false)
	s.stats.WriteCount.Add(1)
	s.logger.Info("控制暫存器已寫入",
		zap.Uint16("address", address),
		zap.Uint16("value", value),
	)

	// 回應與請求相同
	return frame.GetData()[0:4], &mbserver.Success
}

func (s *Server) handleUnsupported(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	s.recordRequest(true)
	s.logger.Debug("不支援的功能碼", zap.Uint8("function", frame.GetFunction()))
	return []byte{}, &mbserver.IllegalFunction
}
