package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw     string
		scheme  string
		address string
		wantErr bool
	}{
		{"tcp://192.168.1.10:502", SchemeTCP, "192.168.1.10:502", false},
		{"rtuovertcp://192.168.100.10:13334", SchemeRTUOverTCP, "192.168.100.10:13334", false},
		{"rtu:///dev/ttyUSB0", SchemeRTU, "/dev/ttyUSB0", false},
		{"rtu://COM9", SchemeRTU, "COM9", false},
		{"TCP://host:502", SchemeTCP, "host:502", false},
		{"tcp://", "", "", true},
		{"rtu://", "", "", true},
		{"udp://host:502", "", "", true},
		{"://bad", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ep, err := parseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, ep.scheme)
			assert.Equal(t, tt.address, ep.address)
		})
	}
}

func TestConfig_ResolveDriver(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		url      string
		expected string
		wantErr  bool
	}{
		{"auto tcp", DriverAuto, "tcp://h:502", DriverGoburrow, false},
		{"auto rtu", DriverAuto, "rtu:///dev/ttyUSB0", DriverGoburrow, false},
		{"auto rtuovertcp", DriverAuto, "rtuovertcp://h:13334", DriverSimonvetter, false},
		{"simonvetter tcp", DriverSimonvetter, "tcp://h:502", DriverSimonvetter, false},
		{"goburrow rtuovertcp", DriverGoburrow, "rtuovertcp://h:13334", "", true},
		{"unknown driver", "pymodbus", "tcp://h:502", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Driver = tt.driver
			cfg.URL = tt.url

			driver, err := cfg.ResolveDriver()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, driver)
		})
	}
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
			name: "tcp ignores serial settings",
			modify: func(c *Config) {
				c.URL = "tcp://127.0.0.1:502"
				c.BaudRate = 0
				c.Parity = "X"
			},
			wantErr: false,
		},
		{
			name: "invalid timeout",
			modify: func(c *Config) {
				c.Timeout = 0
			},
			wantErr: true,
		},
		{
			name: "invalid baud rate",
			modify: func(c *Config) {
				c.BaudRate = 0
			},
			wantErr: true,
		},
		{
			name: "invalid parity",
			modify: func(c *Config) {
				c.Parity = "X"
			},
			wantErr: true,
		},
		{
			name: "invalid stop bits",
			modify: func(c *Config) {
				c.StopBits = 3
			},
			wantErr: true,
		},
		{
			name: "invalid data bits",
			modify: func(c *Config) {
				c.DataBits = 9
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWordsFromBytes(t *testing.T) {
	assert.Equal(t, []uint16{0x0102, 0x0304}, wordsFromBytes([]byte{0x01, 0x02, 0x03, 0x04}))
	assert.Empty(t, wordsFromBytes(nil))
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "udp://127.0.0.1:502"

	_, err := Open(cfg, nil)
	assert.Error(t, err)
}
