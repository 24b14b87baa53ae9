// Package simulator 以 mbserver 模擬 Vigor 熱回收通風機的 Modbus TCP 介面
package simulator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"
)

// ServerState 模擬器狀態
type ServerState int32

const (
	ServerStateStopped ServerState = iota
	ServerStateStarting
	ServerStateRunning
	ServerStateStopping
)

func (s ServerState) String() string {
	switch s {
	case ServerStateStopped:
		return "stopped"
	case ServerStateStarting:
		return "starting"
	case ServerStateRunning:
		return "running"
	case ServerStateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Server 單一模擬裝置
type Server struct {
	addr string

	state atomic.Int32

	registers *RegisterMap
	model     *Model
	server    *mbserver.Server

	stats Stats

	// 模型更新
	serial         string
	seed           int64
	scenario       ScenarioType
	updateInterval time.Duration
	updaterStop    context.CancelFunc
	updaterDone    chan struct{}

	logger *zap.Logger
}

// Stats 模擬器統計資訊
type Stats struct {
	StartTime       time.Time
	RequestCount    atomic.Uint64
	ErrorCount      atomic.Uint64
	WriteCount      atomic.Uint64
	LastRequestTime atomic.Int64
}

// Option 模擬器配置選項
type Option func(*Server)

// WithLogger 設定日誌
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithUpdateInterval 設定模型更新間隔，0 表示不自動更新
func WithUpdateInterval(d time.Duration) Option {
	return func(s *Server) {
		s.updateInterval = d
	}
}

// WithScenario 設定初始場景
func WithScenario(t ScenarioType) Option {
	return func(s *Server) {
		s.scenario = t
	}
}

// WithSerial 設定 12 位數序號
func WithSerial(serial string) Option {
	return func(s *Server) {
		s.serial = serial
	}
}

// WithSeed 設定亂數種子
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithRegisters 設定自訂暫存器
func WithRegisters(rm *RegisterMap) Option {
	return func(s *Server) {
		s.registers = rm
	}
}

// NewServer 建立模擬裝置
func NewServer(addr string, opts ...Option) (*Server, error) {
	s := &Server{
		addr:           addr,
		serial:         DefaultSerial,
		seed:           time.Now().UnixNano(),
		scenario:       ScenarioNormal,
		updateInterval: time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.registers == nil {
		s.registers = DefaultRegisterMap()
	}

	model, err := NewModel(s.registers, s.serial, s.seed)
	if err != nil {
		return nil, err
	}
	if err := model.SetScenario(s.scenario); err != nil {
		return nil, err
	}
	model.Reset()
	s.model = model

	return s, nil
}

// Start 啟動模擬器
func (s *Server) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(ServerStateStopped), int32(ServerStateStarting)) {
		return fmt.Errorf("模擬器 %s 已經在運行中", s.addr)
	}

	s.server = mbserver.NewServer()
	s.registerHandlers()

	s.stats.StartTime = time.Now()
	if err := s.server.ListenTCP(s.addr); err != nil {
		s.state.Store(int32(ServerStateStopped))
		return fmt.Errorf("監聽 %s 失敗: %w", s.addr, err)
	}

	if s.updateInterval > 0 {
		var updaterCtx context.Context
		updaterCtx, s.updaterStop = context.WithCancel(ctx)
		s.updaterDone = make(chan struct{})
		go s.runModelUpdater(updaterCtx)
	}

	s.state.Store(int32(ServerStateRunning))

	s.logger.Info("模擬器已啟動",
		zap.String("addr", s.addr),
		zap.String("scenario", s.scenario.String()),
		zap.Duration("update_interval", s.updateInterval),
	)

	return nil
}

// Stop 停止模擬器
func (s *Server) Stop() error {
	if !s.state.CompareAndSwap(int32(ServerStateRunning), int32(ServerStateStopping)) {
		return nil // 已經停止
	}

	if s.updaterStop != nil {
		s.updaterStop()
		<-s.updaterDone
	}

	if s.server != nil {
		s.server.Close()
	}

	s.state.Store(int32(ServerStateStopped))

	s.logger.Info("模擬器已停止",
		zap.String("addr", s.addr),
		zap.Duration("uptime", time.Since(s.stats.StartTime)),
		zap.Uint64("requests", s.stats.RequestCount.Load()),
		zap.Uint64("errors", s.stats.ErrorCount.Load()),
	)

	return nil
}

// Addr 監聽位址
func (s *Server) Addr() string {
	return s.addr
}

// State 取得當前狀態
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// GetStats 取得統計資訊
func (s *Server) GetStats() *Stats {
	return &s.stats
}

// Registers 取得暫存器映射
func (s *Server) Registers() *RegisterMap {
	return s.registers
}

// Model 取得模擬模型
func (s *Server) Model() *Model {
	return s.model
}

// runModelUpdater 定時推進模型
func (s *Server) runModelUpdater(ctx context.Context) {
	defer close(s.updaterDone)

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.model.Step()
		}
	}
}

// recordRequest 記錄請求
func (s *Server) recordRequest(hasError bool) {
	s.stats.RequestCount.Add(1)
	s.stats.LastRequestTime.Store(time.Now().UnixNano())
	if hasError {
		s.stats.ErrorCount.Add(1)
	}
}
