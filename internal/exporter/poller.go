package exporter

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	vigor "vigor-modbus"
)

// StatusReader 讀取完整裝置狀態
type StatusReader interface {
	Status() (vigor.Status, error)
}

// Publisher 發布狀態訊息
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Poller 定期輪詢裝置
type Poller struct {
	device    StatusReader
	metrics   *Metrics
	publisher Publisher
	topic     func(serial string) string
	interval  time.Duration
	logger    *zap.Logger
}

// PollerOption Poller 配置選項
type PollerOption func(*Poller)

// WithPublisher 每次成功輪詢後發布狀態
func WithPublisher(p Publisher, topic func(serial string) string) PollerOption {
	return func(pl *Poller) {
		pl.publisher = p
		pl.topic = topic
	}
}

// WithInterval 設定輪詢間隔
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithLogger 設定日誌
func WithLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller 建立輪詢器
func NewPoller(device StatusReader, metrics *Metrics, opts ...PollerOption) *Poller {
	p := &Poller{
		device:   device,
		metrics:  metrics,
		interval: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// PollOnce 輪詢一次
//
// 讀取失敗時只更新錯誤計數，不發布。發布失敗不影響指標。
func (p *Poller) PollOnce() (vigor.Status, error) {
	start := time.Now()
	status, err := p.device.Status()
	took := time.Since(start)
	if err != nil {
		p.metrics.ObserveError(took)
		p.logger.Warn("輪詢失敗", zap.Duration("took", took), zap.Error(err))
		return vigor.Status{}, err
	}

	p.metrics.Observe(status, took)
	p.logger.Debug("輪詢完成",
		zap.String("serial", status.SerialNumber),
		zap.Duration("took", took),
	)

	if p.publisher != nil {
		p.publish(status)
	}
	return status, nil
}

func (p *Poller) publish(status vigor.Status) {
	payload, err := json.Marshal(status)
	if err != nil {
		p.logger.Error("狀態序列化失敗", zap.Error(err))
		return
	}

	topic := p.topic(status.SerialNumber)
	if err := p.publisher.Publish(topic, payload); err != nil {
		p.logger.Warn("發布狀態失敗", zap.String("topic", topic), zap.Error(err))
	}
}

// Run 立即輪詢一次，之後每個間隔輪詢，直到 ctx 結束
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("開始輪詢", zap.Duration("interval", p.interval))

	p.PollOnce()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("停止輪詢")
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce()
		}
	}
}
