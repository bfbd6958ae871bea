package application

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lk2023060901/typebridge/pkg/bridge"
	"github.com/lk2023060901/typebridge/pkg/config"
	tlog "github.com/lk2023060901/typebridge/pkg/log"
	"github.com/lk2023060901/typebridge/pkg/metrics"
	"github.com/lk2023060901/typebridge/pkg/serializer"
	tviper "github.com/lk2023060901/typebridge/pkg/util/viper"
)

// DefaultConfigPath 是未指定配置文件时尝试加载的路径。
const DefaultConfigPath = "./config.yaml"

// Application 是 typebridge 的运行时容器：持有配置、日志与装配好的 Bridge。
type Application struct {
	args       []string
	registerer prometheus.Registerer

	cfg     *config.Config
	bridge  *bridge.Bridge
	loggers map[string]*tlog.MLogger
}

// Option 用于配置 Application 的选项函数。
type Option func(a *Application)

// WithArgs 指定命令行参数，默认使用 os.Args[1:]。
func WithArgs(args []string) Option {
	return func(a *Application) {
		a.args = args
	}
}

// WithRegisterer 指定指标注册器，默认使用 prometheus.DefaultRegisterer。
func WithRegisterer(r prometheus.Registerer) Option {
	return func(a *Application) {
		a.registerer = r
	}
}

// New creates a new Application instance.
func New(opts ...Option) *Application {
	a := &Application{
		args:       os.Args[1:],
		registerer: prometheus.DefaultRegisterer,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run 按以下优先级解析配置文件路径并完成初始化：
//  1. 默认：./config.yaml（不存在时使用默认配置）
//  2. 环境变量：TYPEBRIDGE_CONFIG_FILE_PATH
//  3. 命令行：--config <path> 或 --config=<path>
func (a *Application) Run() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initModuleLoggers(); err != nil {
		return err
	}

	metrics.Register(a.registerer)

	b, err := a.buildBridge()
	if err != nil {
		return err
	}
	a.bridge = b
	return nil
}

// Close 释放 Bridge 持有的资源并刷新日志。
func (a *Application) Close() {
	if a.bridge != nil {
		a.bridge.Close()
	}
	_ = tlog.Sync()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *config.Config {
	return a.cfg
}

// Bridge 返回按配置装配好的 Bridge，Run 之前为 nil。
func (a *Application) Bridge() *bridge.Bridge {
	return a.bridge
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *tlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return tlog.With(tlog.FieldModule(name))
}

// configPath 按优先级解析配置文件路径；explicit 表示路径来自环境变量或命令行。
func (a *Application) configPath() (path string, explicit bool, err error) {
	path = DefaultConfigPath
	if envPath := strings.TrimSpace(os.Getenv("TYPEBRIDGE_CONFIG_FILE_PATH")); envPath != "" {
		path, explicit = envPath, true
	}

	for i := 0; i < len(a.args); i++ {
		arg := a.args[i]
		if arg == "--config" {
			if i+1 >= len(a.args) {
				return "", false, errors.New("missing value after --config")
			}
			path, explicit = a.args[i+1], true
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			path, explicit = val, true
		}
	}
	return path, explicit, nil
}

// loadConfig 加载配置文件。默认路径不存在时退回到默认配置与环境变量。
func (a *Application) loadConfig() (*config.Config, error) {
	path, explicit, err := a.configPath()
	if err != nil {
		return nil, err
	}

	v := tviper.NewWithEnv(config.EnvPrefix)
	if _, statErr := os.Stat(path); statErr == nil || explicit {
		if err := v.LoadFile(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %q", path)
		}
		tlog.Info("config loaded", tlog.FieldComponent("application"), zap.String("path", path))
	}
	return config.Load(v)
}

func (a *Application) buildBridge() (*bridge.Bridge, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	registry := bridge.NewRegistry()
	if lg, ok := a.loggers["bridge"]; ok {
		registry.SetLogger(lg)
	}
	return bridge.New(
		bridge.WithRegistry(registry),
		bridge.WithMaxDepth(a.cfg.Bridge.MaxDepth),
		bridge.WithBatchWorkers(a.cfg.Bridge.BatchWorkers),
		bridge.WithBatchNonBlocking(a.cfg.Bridge.BatchNonBlocking),
		bridge.WithBatchExpiry(a.cfg.Bridge.BatchExpiry),
		bridge.WithSerializers(serializer.Defaults(loc)...),
	)
}

// initGlobalLoggerFromEnv configures the process-wide logger based on TYPEBRIDGE_LOG_* env vars.
//
// Priority:
//   - TYPEBRIDGE_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - TYPEBRIDGE_LOG_LEVEL: log level (default "info").
//   - TYPEBRIDGE_LOG_STDOUT: whether to log to stdout (default false).
//   - TYPEBRIDGE_LOG_FILE_DIR: log directory.
//   - TYPEBRIDGE_LOG_FILE: log file name (empty means no file).
//   - TYPEBRIDGE_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("TYPEBRIDGE_LOG_ENABLE", false)

	cfg := &tlog.Config{
		Level:  getenvDefault("TYPEBRIDGE_LOG_LEVEL", "info"),
		Format: getenvDefault("TYPEBRIDGE_LOG_FORMAT", "text"),
		Stdout: getenvBool("TYPEBRIDGE_LOG_STDOUT", false),
		File: tlog.FileLogConfig{
			RootPath: getenvDefault("TYPEBRIDGE_LOG_FILE_DIR", ""),
			Filename: getenvDefault("TYPEBRIDGE_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := tlog.InitLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "init global logger from env")
	}
	tlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggers creates named loggers from the "logging" section.
//
// Example:
//
//	logging:
//	  bridge:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: bridge.log
func (a *Application) initModuleLoggers() error {
	if len(a.cfg.Logging) == 0 {
		return nil
	}

	a.loggers = make(map[string]*tlog.MLogger, len(a.cfg.Logging))
	for name, lc := range a.cfg.Logging {
		cfgCopy := lc
		logger, _, err := tlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &tlog.MLogger{Logger: logger.With(tlog.FieldModule(name))}
	}
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
