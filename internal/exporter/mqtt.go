package exporter

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MQTTConfig MQTT 發布配置
type MQTTConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	Broker      string        `json:"broker" mapstructure:"broker"`
	ClientID    string        `json:"client_id" mapstructure:"client_id"`
	Username    string        `json:"username" mapstructure:"username"`
	Password    string        `json:"password" mapstructure:"password"`
	TopicPrefix string        `json:"topic_prefix" mapstructure:"topic_prefix"`
	QoS         byte          `json:"qos" mapstructure:"qos"`
	Retain      bool          `json:"retain" mapstructure:"retain"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultMQTTConfig 返回預設配置
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Enabled:     false,
		Broker:      "tcp://127.0.0.1:1883",
		TopicPrefix: "vigor",
		QoS:         0,
		Retain:      true,
		Timeout:     10 * time.Second,
	}
}

// Validate 驗證配置
func (c MQTTConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("MQTT broker 不可為空")
	}
	if c.TopicPrefix == "" {
		return errors.New("MQTT topic 前綴不可為空")
	}
	if c.QoS > 2 {
		return fmt.Errorf("無效的 MQTT QoS: %d", c.QoS)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("無效的 MQTT 逾時: %v", c.Timeout)
	}
	return nil
}

// StateTopic 狀態訊息的 topic
func (c MQTTConfig) StateTopic(serial string) string {
	return fmt.Sprintf("%s/%s/state", c.TopicPrefix, serial)
}

// clientOptions 建立 paho 連線選項，未指定 client id 時以 uuid 產生
func (c MQTTConfig) clientOptions() *mqtt.ClientOptions {
	clientID := c.ClientID
	if clientID == "" {
		clientID = "vigorctl-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(clientID).
		SetKeepAlive(30 * time.Second).
		SetConnectTimeout(c.Timeout).
		SetPingTimeout(3 * time.Second).
		SetAutoReconnect(true).
		SetOrderMatters(false)

	if c.Username != "" {
		opts.SetUsername(c.Username)
		opts.SetPassword(c.Password)
	}
	return opts
}

// MQTTPublisher 以 paho 發布狀態
type MQTTPublisher struct {
	client  mqtt.Client
	qos     byte
	retain  bool
	timeout time.Duration
	logger  *zap.Logger
}

// NewMQTTPublisher 連線到 broker
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := cfg.clientOptions()
	client := mqtt.NewClient(opts)
	t := client.Connect()
	if ok := t.WaitTimeout(cfg.Timeout); !ok {
		return nil, fmt.Errorf("連線 MQTT broker %s 逾時", cfg.Broker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("連線 MQTT broker %s 失敗: %w", cfg.Broker, err)
	}

	logger.Info("MQTT 已連線",
		zap.String("broker", cfg.Broker),
		zap.String("client_id", opts.ClientID),
	)

	return &MQTTPublisher{
		client:  client,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Publish 發布訊息並等待完成
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	t := p.client.Publish(topic, p.qos, p.retain, payload)
	if ok := t.WaitTimeout(p.timeout); !ok {
		return fmt.Errorf("發布 %s 逾時", topic)
	}
	return t.Error()
}

// Close 中斷連線
func (p *MQTTPublisher) Close() {
	if p.client.IsConnectionOpen() {
		p.client.Disconnect(250)
	}
}
