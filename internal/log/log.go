package log

import (
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	var err error
	logger, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}

// Logger get current logger
func Logger() *zap.Logger {
	return logger
}

// CloseLogger silences everything below fatal. Terminal UIs call it so log
// lines do not tear the screen.
func CloseLogger() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.FatalLevel)
	var err error
	logger, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}

// Options describes the log sinks. An empty Path keeps logging on stderr only.
type Options struct {
	Debug      bool
	Path       string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Quiet      bool
}

func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.Bool("debug", false, "enable debug logging")
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
}

// OptionsFromFlags reads the flags registered by AddFlags.
func OptionsFromFlags(flagSet *pflag.FlagSet) Options {
	var opts Options
	opts.Debug, _ = flagSet.GetBool("debug")
	if flagSet.Changed("log-path") {
		opts.Path, _ = flagSet.GetString("log-path")
	}
	opts.MaxSize, _ = flagSet.GetInt("log-max-size")
	opts.MaxAge, _ = flagSet.GetInt("log-max-age")
	opts.MaxBackups, _ = flagSet.GetInt("log-max-backups")
	return opts
}

func SetLogger(flagSet *pflag.FlagSet) {
	logger = New(OptionsFromFlags(flagSet))
}

// New builds a logger: console encoding in debug mode, JSON otherwise, with
// an optional rotating file sink.
func New(opts Options) *zap.Logger {
	var (
		encoder zapcore.Encoder
		level   zapcore.LevelEnabler
	)
	timeEncoder := zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999999")

	if opts.Debug {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = timeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
		level = zap.DebugLevel
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = timeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
		level = zap.InfoLevel
	}

	var writers []zapcore.WriteSyncer
	if !opts.Quiet {
		writers = append(writers, zapcore.AddSync(os.Stderr))
	}
	if opts.Path != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   false,
		}))
	}
	if len(writers) == 0 {
		return zap.NewNop()
	}
	core := zapcore.NewCore(encoder, zap.CombineWriteSyncers(writers...), level)
	return zap.New(core)
}

// Replace swaps the package logger, returning a func that restores the old one.
func Replace(l *zap.Logger) func() {
	prev := logger
	logger = l
	return func() { logger = prev }
}
