package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	vigor "vigor-modbus"
	"vigor-modbus/internal/exporter"
	"vigor-modbus/internal/simulator"
)

var (
	cfgFile   string
	logger    *zap.Logger
	appConfig *Config

	// 連線參數覆蓋
	flagURL    string
	flagDriver string
	flagUnit   uint8
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "vigorctl",
	Short: "Vigor 熱回收通風機 Modbus 工具",
	Long: `透過 Modbus (TCP、RTU 或 ser2net 的 RTU over TCP) 讀取 Vigor 熱回收通風機的遙測，
切換風量控制模式，輸出 Prometheus 指標與 MQTT 狀態，並可模擬一台裝置供測試。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var loadErr error

		// 載入配置 (除了 version、help 和 generate 命令)
		appConfig = DefaultConfig()
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "generate" {
			var cfg *Config
			cfg, loadErr = LoadConfig(cfgFile)
			if loadErr == nil {
				appConfig = cfg
			}
		}
		applyFlagOverrides(cmd)

		// 初始化日誌
		var err error
		logger, err = initLogger(appConfig.Logging)
		if err != nil {
			return fmt.Errorf("初始化日誌失敗: %w", err)
		}
		if loadErr != nil {
			// 配置載入失敗時使用預設值
			logger.Warn("載入配置失敗，使用預設配置", zap.Error(loadErr))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("url") {
		appConfig.Transport.URL = flagURL
	}
	if flags.Changed("driver") {
		appConfig.Transport.Driver = flagDriver
	}
	if flags.Changed("unit") {
		appConfig.Device.UnitID = flagUnit
	}
	if level, _ := flags.GetString("log-level"); flags.Changed("log-level") {
		appConfig.Logging.Level = level
	}
}

// withDevice 建立裝置後執行，結束時關閉傳輸
func withDevice(fn func(d *vigor.Device) error) error {
	device, cleanup, err := InitDevice(appConfig, logger)
	if err != nil {
		return fmt.Errorf("開啟裝置失敗: %w", err)
	}
	defer cleanup()
	return fn(device)
}

// statusCmd 狀態命令
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "讀取所有遙測",
	Long:  "依序讀取序號、送風與排風的溫度、壓差、風量，以及風量模式、旁通閥與濾網狀態。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withDevice(func(d *vigor.Device) error {
			status, err := d.Status()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		})
	},
}

func printStatus(w io.Writer, s vigor.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "序號\t%s\n", s.SerialNumber)
	fmt.Fprintf(tw, "風量模式\t%s\n", s.AirflowMode)
	fmt.Fprintf(tw, "旁通閥\t%s\n", s.Bypass)
	fmt.Fprintf(tw, "濾網\t%s\n", s.Filter)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "\t送風\t排風\n")
	fmt.Fprintf(tw, "溫度 (°C)\t%.1f\t%.1f\n", s.Supply.Temperature, s.Extract.Temperature)
	fmt.Fprintf(tw, "壓差 (Pa)\t%d\t%d\n", s.Supply.Pressure, s.Extract.Pressure)
	fmt.Fprintf(tw, "設定風量 (m³/h)\t%d\t%d\n", s.Supply.AirflowPreset, s.Extract.AirflowPreset)
	fmt.Fprintf(tw, "實際風量 (m³/h)\t%d\t%d\n", s.Supply.AirflowActual, s.Extract.AirflowActual)
	tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// getCmd 單一讀取命令
var getCmd = &cobra.Command{
	Use:       "get [name]",
	Short:     "讀取單一數值",
	Long:      "讀取單一遙測或狀態，名稱可加上 get_ 前綴。",
	Args:      cobra.ExactArgs(1),
	ValidArgs: vigor.ReadableNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(d *vigor.Device) error {
			value, err := d.Read(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		})
	},
}

// setCmd 設定命令組
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "變更風量控制",
	Long:  "變更控制模式或風量。只在暫存器值不同時寫入。",
}

// setModeCmd 設定控制模式
var setModeCmd = &cobra.Command{
	Use:   "mode [wall_unit|modbus_manual|modbus_preset|0|1|2]",
	Short: "設定控制模式",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := vigor.ParseControlMode(args[0])
		if err != nil {
			return err
		}
		return withDevice(func(d *vigor.Device) error {
			if err := d.SetModbusMode(mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "控制模式: %s\n", mode)
			return nil
		})
	},
}

// setAirflowCmd 設定風量等級
var setAirflowCmd = &cobra.Command{
	Use:   "airflow [holiday|low|normal|high|0-3|wall_unit]",
	Short: "設定風量等級或交回牆面面板",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, err := vigor.ParseAirflowSetting(args[0])
		if err != nil {
			return err
		}
		return withDevice(func(d *vigor.Device) error {
			if err := d.SetAirflowMode(setting); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "風量模式: %s\n", setting)
			return nil
		})
	},
}

// setRateCmd 設定風量數值
var setRateCmd = &cobra.Command{
	Use:   "rate [m3/h]",
	Short: "設定風量數值",
	Long: fmt.Sprintf(`設定風量數值 (m³/h)。低於 %d 視為 0 (交回牆面面板等級)，高於 %d 以 %d 寫入。
裝置需要幾秒才會更新設定風量暫存器。`, vigor.AirflowRateMin, vigor.AirflowRateMax, vigor.AirflowRateMax),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("無效的風量: %q", args[0])
		}
		return withDevice(func(d *vigor.Device) error {
			if err := d.SetAirflowRate(value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "風量: %d m³/h\n", vigor.ClampAirflowRate(value))
			return nil
		})
	},
}

// registersCmd 暫存器目錄
var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "列出暫存器目錄",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registers := vigor.Registers()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), registers)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "名稱\t位址\t數量\t類型\t單位\t可寫")
		for _, r := range registers {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%t\n", r.Name, r.Address, r.Count, r.Kind, r.Unit, r.Writable)
		}
		return tw.Flush()
	},
}

// pollCmd 輪詢命令
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "定期輪詢並輸出指標",
	Long:  "定期讀取完整狀態，更新 Prometheus 指標，啟用 MQTT 時發布到 <topic_prefix>/<serial>/state。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
			appConfig.Poll.Interval = interval
		}

		device, cleanup, err := InitDevice(appConfig, logger)
		if err != nil {
			return fmt.Errorf("開啟裝置失敗: %w", err)
		}
		defer cleanup()

		metrics := exporter.NewMetrics()
		opts := []exporter.PollerOption{
			exporter.WithInterval(appConfig.Poll.Interval),
			exporter.WithLogger(logger.Named("poller")),
		}

		if appConfig.MQTT.Enabled {
			publisher, err := exporter.NewMQTTPublisher(appConfig.MQTT, logger.Named("mqtt"))
			if err != nil {
				return err
			}
			defer publisher.Close()
			opts = append(opts, exporter.WithPublisher(publisher, appConfig.MQTT.StateTopic))
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if appConfig.Metrics.Enabled {
			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", appConfig.Metrics.Port),
				Handler: metrics.Handler(appConfig.Metrics.Endpoint),
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("指標伺服器錯誤", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			logger.Info("指標伺服器已啟動",
				zap.Int("port", appConfig.Metrics.Port),
				zap.String("endpoint", appConfig.Metrics.Endpoint),
			)
		}

		poller := exporter.NewPoller(device, metrics, opts...)
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// simulateCmd 模擬命令
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "模擬一台 Vigor 裝置",
	Long:  "以 Modbus TCP 模擬一台 Vigor 熱回收通風機，支援 FC 03、04、06。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if listen, _ := flags.GetString("listen"); flags.Changed("listen") {
			appConfig.Simulator.Listen = listen
		}
		if scenario, _ := flags.GetString("scenario"); flags.Changed("scenario") {
			appConfig.Simulator.Scenario = scenario
		}
		if serial, _ := flags.GetString("serial"); flags.Changed("serial") {
			appConfig.Simulator.SerialNumber = serial
		}

		scenario, err := simulator.ParseScenarioType(appConfig.Simulator.Scenario)
		if err != nil {
			return err
		}

		sim, err := simulator.NewServer(appConfig.Simulator.Listen,
			simulator.WithLogger(logger.Named("simulator")),
			simulator.WithScenario(scenario),
			simulator.WithSerial(appConfig.Simulator.SerialNumber),
			simulator.WithUpdateInterval(appConfig.Simulator.UpdateInterval),
		)
		if err != nil {
			return fmt.Errorf("建立模擬器失敗: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := sim.Start(ctx); err != nil {
			return fmt.Errorf("啟動模擬器失敗: %w", err)
		}

		// 等待信號
		<-ctx.Done()
		logger.Info("收到關閉信號")
		return sim.Stop()
	},
}

// scenariosCmd 列出場景
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "列出可用場景",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		descriptions := map[simulator.ScenarioType]string{
			simulator.ScenarioNormal:      "正常運轉，溫度小幅波動",
			simulator.ScenarioDirtyFilter: "濾網需更換，送風壓差上升",
			simulator.ScenarioBypassCycle: "旁通閥循環開關",
			simulator.ScenarioWinter:      "送風溫度低於零度",
		}

		fmt.Fprintln(cmd.OutOrStdout(), "可用的模擬場景:")
		for _, t := range simulator.ListScenarioTypes() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-15s %s\n", t, descriptions[t])
		}
	},
}

// configCmd 配置命令組
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理命令",
	Long:  "管理配置檔。",
}

// configValidateCmd 驗證配置
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "驗證配置檔",
	Long:  "驗證指定的配置檔是否有效。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("配置驗證失敗: %w", err)
		}

		driver, _ := cfg.Transport.ResolveDriver()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "配置驗證通過")
		fmt.Fprintf(out, "  Transport: %s (%s)\n", cfg.Transport.URL, driver)
		fmt.Fprintf(out, "  Unit ID: %d\n", cfg.Device.UnitID)
		fmt.Fprintf(out, "  Poll: %v\n", cfg.Poll.Interval)
		fmt.Fprintf(out, "  MQTT: %t\n", cfg.MQTT.Enabled)
		return nil
	},
}

// configGenerateCmd 生成配置
var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成範例配置",
	Long:  "生成範例配置檔。",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = "config.json"
		}

		cfg := DefaultConfig()
		if err := cfg.SaveConfig(output); err != nil {
			return fmt.Errorf("生成配置失敗: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "範例配置已生成: %s\n", output)
		return nil
	},
}

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示版本資訊",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "vigorctl version %s\n", Version)
		fmt.Fprintf(out, "  Build: %s\n", BuildTime)
		fmt.Fprintf(out, "  Commit: %s\n", GitCommit)
	},
}

func init() {
	// 全域 flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "配置檔路徑")
	pf.StringVarP(&flagURL, "url", "u", "", "裝置位址 (tcp://, rtu://, rtuovertcp://)")
	pf.StringVar(&flagDriver, "driver", "", "傳輸驅動 (goburrow, simonvetter)")
	pf.Uint8Var(&flagUnit, "unit", vigor.DefaultUnitID, "Modbus unit id")
	pf.String("log-level", "", "日誌等級 (debug, info, warn, error)")

	statusCmd.Flags().Bool("json", false, "以 JSON 輸出")
	registersCmd.Flags().Bool("json", false, "以 JSON 輸出")
	pollCmd.Flags().DurationP("interval", "i", 0, "輪詢間隔")

	simulateCmd.Flags().StringP("listen", "l", "", "監聽位址")
	simulateCmd.Flags().StringP("scenario", "s", "", "模擬場景")
	simulateCmd.Flags().String("serial", "", "12 位數序號")

	// config 命令 flags
	configGenerateCmd.Flags().StringP("output", "o", "config.json", "輸出檔案路徑")

	// 組裝命令樹
	setCmd.AddCommand(setModeCmd, setAirflowCmd, setRateCmd)
	configCmd.AddCommand(configValidateCmd, configGenerateCmd)

	rootCmd.AddCommand(
		statusCmd,
		getCmd,
		setCmd,
		registersCmd,
		pollCmd,
		simulateCmd,
		scenariosCmd,
		configCmd,
		versionCmd,
	)
}

func initLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{cfg.OutputPath}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// Execute 執行 CLI
func Execute() error {
	return rootCmd.Execute()
}
