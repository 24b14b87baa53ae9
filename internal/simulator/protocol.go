package simulator

import (
	"errors"

	"github.com/tbrandon/mbserver"
)

// Modbus 功能碼
const (
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10
)

// 暫存器限制
const (
	MaxRegistersPerRead = 125
)

// unsupportedFunctions Vigor 不支援的功能碼，一律回應 IllegalFunction
var unsupportedFunctions = []uint8{
	FuncCodeReadCoils,
	FuncCodeReadDiscreteInputs,
	FuncCodeWriteSingleCoil,
	FuncCodeWriteMultipleCoils,
	FuncCodeWriteMultipleRegisters,
}

var (
	ErrAddressOutOfRange = errors.New("暫存器位址超出範圍")
	ErrReadOnly          = errors.New("暫存器不可寫入")
	ErrValueOutOfRange   = errors.New("寫入值超出範圍")
)

// exceptionFor 將暫存器錯誤對應到 Modbus 異常碼
func exceptionFor(err error) *mbserver.Exception {
	switch {
	case err == nil:
		return &mbserver.Success
	case errors.Is(err, ErrAddressOutOfRange), errors.Is(err, ErrReadOnly):
		return &mbserver.IllegalDataAddress
	case errors.Is(err, ErrValueOutOfRange):
		return &mbserver.IllegalDataValue
	default:
		return &mbserver.SlaveDeviceFailure
	}
}
