//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	vigor "vigor-modbus"
)

func InitDevice(cfg *Config, logger *zap.Logger) (*vigor.Device, func(), error) {
	wire.Build(
		ProvideTransport,
		ProvideDevice,
	)
	return nil, nil, nil // wire will generate the result
}
