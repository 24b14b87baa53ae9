package vigor

import (
	"fmt"
	"sort"
)

// AirStream 單一風道 (送風或排風) 的遙測
type AirStream struct {
	Temperature   float64 `json:"temperature_celsius"`
	Pressure      int     `json:"pressure_pa"`
	AirflowPreset int     `json:"airflow_preset_m3h"`
	AirflowActual int     `json:"airflow_actual_m3h"`
}

// Status 裝置狀態快照
type Status struct {
	SerialNumber string       `json:"serial_number"`
	Supply       AirStream    `json:"supply"`
	Extract      AirStream    `json:"extract"`
	AirflowMode  AirflowMode  `json:"airflow_mode"`
	Bypass       BypassStatus `json:"bypass"`
	Filter       FilterStatus `json:"filter"`
}

// Status 依序讀取所有遙測，遇到第一個錯誤即停止
func (d *Device) Status() (Status, error) {
	var (
		s   Status
		err error
	)

	steps := []func() error{
		func() error { s.SerialNumber, err = d.SerialNumber(); return err },
		func() error { s.Supply.Temperature, err = d.SupplyTemperature(); return err },
		func() error { s.Supply.Pressure, err = d.SupplyPressure(); return err },
		func() error { s.Supply.AirflowActual, err = d.SupplyAirflowActual(); return err },
		func() error { s.Supply.AirflowPreset, err = d.SupplyAirflowPreset(); return err },
		func() error { s.Extract.Temperature, err = d.ExtractTemperature(); return err },
		func() error { s.Extract.Pressure, err = d.ExtractPressure(); return err },
		func() error { s.Extract.AirflowActual, err = d.ExtractAirflowActual(); return err },
		func() error { s.Extract.AirflowPreset, err = d.ExtractAirflowPreset(); return err },
		func() error { s.AirflowMode, err = d.AirflowMode(); return err },
		func() error { s.Bypass, err = d.BypassStatus(); return err },
		func() error { s.Filter, err = d.FilterStatus(); return err },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return Status{}, err
		}
	}
	return s, nil
}

// getters 可依名稱讀取的操作
var getters = map[string]func(d *Device) (any, error){
	"serial_number":          func(d *Device) (any, error) { return d.SerialNumber() },
	"supply_pressure":        func(d *Device) (any, error) { return d.SupplyPressure() },
	"extract_pressure":       func(d *Device) (any, error) { return d.ExtractPressure() },
	"supply_airflow_preset":  func(d *Device) (any, error) { return d.SupplyAirflowPreset() },
	"supply_airflow_actual":  func(d *Device) (any, error) { return d.SupplyAirflowActual() },
	"extract_airflow_preset": func(d *Device) (any, error) { return d.ExtractAirflowPreset() },
	"extract_airflow_actual": func(d *Device) (any, error) { return d.ExtractAirflowActual() },
	"supply_temperature":     func(d *Device) (any, error) { return d.SupplyTemperature() },
	"extract_temperature":    func(d *Device) (any, error) { return d.ExtractTemperature() },
	"bypass_status":          func(d *Device) (any, error) { return d.BypassStatus() },
	"filter_status":          func(d *Device) (any, error) { return d.FilterStatus() },
	"airflow_mode":           func(d *Device) (any, error) { return d.AirflowMode() },
}

// ReadableNames 列出 Read 接受的名稱
func ReadableNames() []string {
	names := make([]string, 0, len(getters))
	for name := range getters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read 依名稱執行讀取操作，名稱前綴 "get_" 可省略
func (d *Device) Read(name string) (any, error) {
	if len(name) > 4 && name[:4] == "get_" {
		name = name[4:]
	}
	get, ok := getters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return get(d)
}
