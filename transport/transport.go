// Package transport 將 Modbus 客戶端函式庫轉接為 vigor.Transport
package transport

import (
	"fmt"

	"go.uber.org/zap"

	vigor "vigor-modbus"
)

// Conn 已連線的傳輸
type Conn interface {
	vigor.Transport
	Close() error
}

// Open 依配置建立並開啟傳輸
//
// 只建立一次連線，不做重試或重新連線。
func Open(cfg Config, logger *zap.Logger) (Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("傳輸配置驗證失敗: %w", err)
	}

	driver, _ := cfg.ResolveDriver()
	logger = logger.With(zap.String("driver", driver), zap.String("url", cfg.URL))

	var (
		conn Conn
		err  error
	)
	switch driver {
	case DriverGoburrow:
		conn, err = NewGoburrow(cfg, logger)
	default:
		conn, err = NewSimonvetter(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("傳輸已開啟", zap.Duration("timeout", cfg.Timeout))
	return conn, nil
}

// wordsFromBytes 將大端序位元組轉為暫存器值
func wordsFromBytes(data []byte) []uint16 {
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = uint16(data[i*2])<<8 | uint16(data[i*2+1])
	}
	return words
}
