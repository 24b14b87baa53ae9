package vigor

//go:generate mockgen -source=transport.go -destination=internal/mocks/mock_transport.go -package=mocks

// Transport Modbus 傳輸層
//
// 實作負責 RTU/TCP 封包、CRC 與連線；本套件只依賴這三個操作。
// 同一個 Transport 不保證可以併發使用，需要時由呼叫端自行序列化。
type Transport interface {
	ReadInputRegisters(unit uint8, address, quantity uint16) ([]uint16, error)
	ReadHoldingRegisters(unit uint8, address, quantity uint16) ([]uint16, error)
	WriteRegister(unit uint8, address, value uint16) error
}
