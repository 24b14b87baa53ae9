package transport

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// 傳輸驅動
const (
	DriverAuto        = ""
	DriverGoburrow    = "goburrow"
	DriverSimonvetter = "simonvetter"
)

// URL scheme
const (
	SchemeTCP        = "tcp"
	SchemeRTU        = "rtu"
	SchemeRTUOverTCP = "rtuovertcp"
)

// Config 傳輸配置
type Config struct {
	Driver   string        `json:"driver" mapstructure:"driver"`
	URL      string        `json:"url" mapstructure:"url"`
	BaudRate int           `json:"baud_rate" mapstructure:"baud_rate"`
	DataBits int           `json:"data_bits" mapstructure:"data_bits"`
	Parity   string        `json:"parity" mapstructure:"parity"`
	StopBits int           `json:"stop_bits" mapstructure:"stop_bits"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultConfig 返回預設配置 (9600 8N1，與 Vigor 出廠設定相同)
func DefaultConfig() Config {
	return Config{
		Driver:   DriverAuto,
		URL:      "rtuovertcp://127.0.0.1:13334",
		BaudRate: 9600,
		DataBits: 8,
		Parity:   "N",
		StopBits: 1,
		Timeout:  5 * time.Second,
	}
}

// endpoint 解析後的位址
type endpoint struct {
	scheme string
	// address TCP 為 host:port，RTU 為序列埠路徑
	address string
}

func parseURL(raw string) (endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return endpoint{}, fmt.Errorf("無效的 URL %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case SchemeTCP, SchemeRTUOverTCP:
		if u.Host == "" {
			return endpoint{}, fmt.Errorf("URL %q 缺少主機位址", raw)
		}
		return endpoint{scheme: scheme, address: u.Host}, nil
	case SchemeRTU:
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		if path == "" {
			return endpoint{}, fmt.Errorf("URL %q 缺少序列埠", raw)
		}
		return endpoint{scheme: scheme, address: path}, nil
	default:
		return endpoint{}, fmt.Errorf("不支援的 URL scheme: %q", u.Scheme)
	}
}

// ResolveDriver 決定實際使用的驅動
// 未指定時 rtuovertcp 使用 simonvetter，其餘使用 goburrow
func (c Config) ResolveDriver() (string, error) {
	ep, err := parseURL(c.URL)
	if err != nil {
		return "", err
	}

	switch c.Driver {
	case DriverAuto:
		if ep.scheme == SchemeRTUOverTCP {
			return DriverSimonvetter, nil
		}
		return DriverGoburrow, nil
	case DriverGoburrow:
		if ep.scheme == SchemeRTUOverTCP {
			return "", fmt.Errorf("goburrow 驅動不支援 %s", SchemeRTUOverTCP)
		}
		return DriverGoburrow, nil
	case DriverSimonvetter:
		return DriverSimonvetter, nil
	default:
		return "", fmt.Errorf("未知的傳輸驅動: %q", c.Driver)
	}
}

// Validate 驗證配置
func (c Config) Validate() error {
	if _, err := c.ResolveDriver(); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("無效的逾時: %v", c.Timeout)
	}

	ep, _ := parseURL(c.URL)
	if ep.scheme == SchemeTCP {
		return nil
	}

	if c.BaudRate <= 0 {
		return fmt.Errorf("無效的鮑率: %d", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("無效的資料位元: %d", c.DataBits)
	}
	switch strings.ToUpper(c.Parity) {
	case "N", "E", "O":
	default:
		return fmt.Errorf("無效的同位元: %q", c.Parity)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("無效的停止位元: %d", c.StopBits)
	}

	return nil
}
