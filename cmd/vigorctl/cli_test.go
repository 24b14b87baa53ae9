package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vigor "vigor-modbus"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vigorctl version "+Version)
}

func TestRegistersCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "registers", "--json")
	require.NoError(t, err)

	var registers []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &registers))
	require.Len(t, registers, len(vigor.Registers()))
	assert.Equal(t, "serial_number", registers[0]["name"])
	assert.Equal(t, "input", registers[0]["kind"])
}

func TestScenariosCommand(t *testing.T) {
	out, err := runCLI(t, "scenarios")
	require.NoError(t, err)
	for _, name := range []string{"normal", "dirty_filter", "bypass_cycle", "winter"} {
		assert.Contains(t, out, name)
	}
}

func TestConfigGenerateAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := runCLI(t, "config", "generate", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = runCLI(t, "config", "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "配置驗證通過")
	assert.Contains(t, out, "simonvetter")
}

func TestSetCommands_InvalidArgs(t *testing.T) {
	_, err := runCLI(t, "set", "mode", "turbo")
	assert.ErrorIs(t, err, vigor.ErrInvalidControlMode)

	_, err = runCLI(t, "set", "airflow", "turbo")
	assert.ErrorIs(t, err, vigor.ErrUnknownAirflowMode)

	_, err = runCLI(t, "set", "rate", "fast")
	assert.Error(t, err)
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, vigor.Status{
		SerialNumber: "000102030405",
		Supply:       vigor.AirStream{Temperature: -0.5, Pressure: 38, AirflowPreset: 150, AirflowActual: 148},
		AirflowMode:  vigor.AirflowMode{Control: vigor.ControlWallUnit},
		Bypass:       vigor.BypassClosed,
	})

	text := out.String()
	assert.Contains(t, text, "000102030405")
	assert.Contains(t, text, "wall_unit")
	assert.Contains(t, text, "-0.5")
	assert.True(t, strings.Contains(text, "closed"))
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"json", LoggingConfig{Level: "info", Format: "json", OutputPath: "stderr"}, false},
		{"console debug", LoggingConfig{Level: "debug", Format: "console", OutputPath: "stderr"}, false},
		{"invalid level", LoggingConfig{Level: "loud", Format: "json", OutputPath: "stderr"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := initLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}
