package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vigor "vigor-modbus"
	"vigor-modbus/transport"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, vigor.DefaultUnitID, cfg.Device.UnitID)
	assert.Equal(t, "rtuovertcp://127.0.0.1:13334", cfg.Transport.URL)
	assert.Equal(t, 10*time.Second, cfg.Poll.Interval)
	assert.Equal(t, "normal", cfg.Simulator.Scenario)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid unit id - zero",
			modify: func(c *Config) {
				c.Device.UnitID = 0
			},
			wantErr: true,
		},
		{
			name: "invalid unit id - too high",
			modify: func(c *Config) {
				c.Device.UnitID = 250
			},
			wantErr: true,
		},
		{
			name: "invalid transport url",
			modify: func(c *Config) {
				c.Transport.URL = "udp://127.0.0.1:502"
			},
			wantErr: true,
		},
		{
			name: "goburrow cannot do rtuovertcp",
			modify: func(c *Config) {
				c.Transport.Driver = transport.DriverGoburrow
			},
			wantErr: true,
		},
		{
			name: "poll interval too short",
			modify: func(c *Config) {
				c.Poll.Interval = 100 * time.Millisecond
			},
			wantErr: true,
		},
		{
			name: "invalid metrics port",
			modify: func(c *Config) {
				c.Metrics.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "metrics port ignored when disabled",
			modify: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Port = 0
			},
			wantErr: false,
		},
		{
			name: "invalid mqtt qos",
			modify: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 5
			},
			wantErr: true,
		},
		{
			name: "unknown scenario",
			modify: func(c *Config) {
				c.Simulator.Scenario = "voltage_sag"
			},
			wantErr: true,
		},
		{
			name: "invalid logging level",
			modify: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "invalid logging format",
			modify: func(c *Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	// 建立暫存目錄
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	// 儲存配置
	cfg := DefaultConfig()
	cfg.Device.UnitID = 7
	cfg.Transport.URL = "tcp://192.168.100.10:502"
	cfg.Transport.Timeout = 3 * time.Second
	cfg.MQTT.TopicPrefix = "home/hrv"

	err := cfg.SaveConfig(configPath)
	require.NoError(t, err)

	// 確認檔案存在
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// 載入配置
	loadedCfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Device.UnitID, loadedCfg.Device.UnitID)
	assert.Equal(t, cfg.Transport.URL, loadedCfg.Transport.URL)
	assert.Equal(t, cfg.Transport.Timeout, loadedCfg.Transport.Timeout)
	assert.Equal(t, cfg.MQTT.TopicPrefix, loadedCfg.MQTT.TopicPrefix)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"poll": {"interval": "30s"}}`), 0644))

	t.Setenv("VIGOR_TRANSPORT_URL", "tcp://10.0.0.5:502")
	t.Setenv("VIGOR_DEVICE_UNIT_ID", "21")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.5:502", cfg.Transport.URL)
	assert.Equal(t, uint8(21), cfg.Device.UnitID)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval)
	// 未指定的鍵維持預設值
	assert.Equal(t, 9600, cfg.Transport.BaudRate)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"device": {"unit_id": 0}}`), 0644))

	_, err := LoadConfig(configPath)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(tmpDir, "missing.json"))
	assert.Error(t, err)
}
