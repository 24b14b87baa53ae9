package main

import (
	"go.uber.org/zap"

	vigor "vigor-modbus"
	"vigor-modbus/transport"
)

// ProvideTransport 依配置開啟傳輸，cleanup 關閉連線
func ProvideTransport(cfg *Config, logger *zap.Logger) (transport.Conn, func(), error) {
	conn, err := transport.Open(cfg.Transport, logger.Named("transport"))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := conn.Close(); err != nil {
			logger.Warn("關閉傳輸失敗", zap.Error(err))
		}
	}
	return conn, cleanup, nil
}

// ProvideDevice 建立裝置外觀
func ProvideDevice(conn transport.Conn, cfg *Config, logger *zap.Logger) *vigor.Device {
	return vigor.NewDevice(conn,
		vigor.WithUnitID(cfg.Device.UnitID),
		vigor.WithLogger(logger.Named("device")),
	)
}
