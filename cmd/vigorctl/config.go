package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	vigor "vigor-modbus"
	"vigor-modbus/internal/exporter"
	"vigor-modbus/internal/simulator"
	"vigor-modbus/transport"
)

// Config 全域配置
type Config struct {
	Device    DeviceConfig        `json:"device" mapstructure:"device"`
	Transport transport.Config    `json:"transport" mapstructure:"transport"`
	Poll      PollConfig          `json:"poll" mapstructure:"poll"`
	Metrics   MetricsConfig       `json:"metrics" mapstructure:"metrics"`
	MQTT      exporter.MQTTConfig `json:"mqtt" mapstructure:"mqtt"`
	Simulator SimulatorConfig     `json:"simulator" mapstructure:"simulator"`
	Logging   LoggingConfig       `json:"logging" mapstructure:"logging"`
}

// DeviceConfig 裝置配置
type DeviceConfig struct {
	UnitID uint8 `json:"unit_id" mapstructure:"unit_id"`
}

// PollConfig 輪詢配置
type PollConfig struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// MetricsConfig 指標配置
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	Port     int    `json:"port" mapstructure:"port"`
}

// SimulatorConfig 模擬器配置
type SimulatorConfig struct {
	Listen         string        `json:"listen" mapstructure:"listen"`
	UpdateInterval time.Duration `json:"update_interval" mapstructure:"update_interval"`
	Scenario       string        `json:"scenario" mapstructure:"scenario"`
	SerialNumber   string        `json:"serial_number" mapstructure:"serial_number"`
}

// LoggingConfig 日誌配置
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// DefaultConfig 返回預設配置
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			UnitID: vigor.DefaultUnitID,
		},
		Transport: transport.DefaultConfig(),
		Poll: PollConfig{
			Interval: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
			Port:     9090,
		},
		MQTT: exporter.DefaultMQTTConfig(),
		Simulator: SimulatorConfig{
			Listen:         "0.0.0.0:5020",
			UpdateInterval: 1 * time.Second,
			Scenario:       simulator.ScenarioNormal.String(),
			SerialNumber:   simulator.DefaultSerial,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

// setDefaults 讓 viper 知道所有鍵，環境變數才能覆蓋巢狀設定
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("device.unit_id", c.Device.UnitID)

	v.SetDefault("transport.driver", c.Transport.Driver)
	v.SetDefault("transport.url", c.Transport.URL)
	v.SetDefault("transport.baud_rate", c.Transport.BaudRate)
	v.SetDefault("transport.data_bits", c.Transport.DataBits)
	v.SetDefault("transport.parity", c.Transport.Parity)
	v.SetDefault("transport.stop_bits", c.Transport.StopBits)
	v.SetDefault("transport.timeout", c.Transport.Timeout)

	v.SetDefault("poll.interval", c.Poll.Interval)

	v.SetDefault("metrics.enabled", c.Metrics.Enabled)
	v.SetDefault("metrics.endpoint", c.Metrics.Endpoint)
	v.SetDefault("metrics.port", c.Metrics.Port)

	v.SetDefault("mqtt.enabled", c.MQTT.Enabled)
	v.SetDefault("mqtt.broker", c.MQTT.Broker)
	v.SetDefault("mqtt.client_id", c.MQTT.ClientID)
	v.SetDefault("mqtt.username", c.MQTT.Username)
	v.SetDefault("mqtt.password", c.MQTT.Password)
	v.SetDefault("mqtt.topic_prefix", c.MQTT.TopicPrefix)
	v.SetDefault("mqtt.qos", c.MQTT.QoS)
	v.SetDefault("mqtt.retain", c.MQTT.Retain)
	v.SetDefault("mqtt.timeout", c.MQTT.Timeout)

	v.SetDefault("simulator.listen", c.Simulator.Listen)
	v.SetDefault("simulator.update_interval", c.Simulator.UpdateInterval)
	v.SetDefault("simulator.scenario", c.Simulator.Scenario)
	v.SetDefault("simulator.serial_number", c.Simulator.SerialNumber)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.output_path", c.Logging.OutputPath)
}

// LoadConfig 載入配置檔
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/vigorctl/")
		v.AddConfigPath("$HOME/.vigorctl/")
	}

	// 環境變數覆蓋 (VIGOR_TRANSPORT_URL -> transport.url)
	v.SetEnvPrefix("VIGOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
		// 配置檔不存在，使用預設值
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置驗證失敗: %w", err)
	}

	return cfg, nil
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if c.Device.UnitID < 1 || c.Device.UnitID > 247 {
		return fmt.Errorf("無效的 unit id: %d", c.Device.UnitID)
	}

	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("傳輸配置: %w", err)
	}

	if c.Poll.Interval < time.Second {
		return fmt.Errorf("輪詢間隔過短: %v (最小 1s)", c.Poll.Interval)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("無效的指標埠號: %d", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Endpoint, "/") {
			return fmt.Errorf("指標路徑必須以 / 開頭: %q", c.Metrics.Endpoint)
		}
	}

	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("MQTT 配置: %w", err)
	}

	if _, err := simulator.ParseScenarioType(c.Simulator.Scenario); err != nil {
		return fmt.Errorf("模擬器配置: %w", err)
	}
	if c.Simulator.UpdateInterval < 0 {
		return fmt.Errorf("無效的模擬器更新間隔: %v", c.Simulator.UpdateInterval)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("無效的日誌等級: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("無效的日誌格式: %q", c.Logging.Format)
	}

	return nil
}

// SaveConfig 儲存配置到檔案
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失敗: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("寫入配置檔失敗: %w", err)
	}

	return nil
}
