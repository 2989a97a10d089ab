// Package logger 全局 zap 日志：文件输出 JSON 并按大小滚动，控制台输出便于本地查看
package logger

import (
	"course_studio_backend/internal/config"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "course-studio"

// Log 在 InitLogger 之前为 Nop，测试中无需初始化
var Log = zap.NewNop()

// level 被文件与控制台两个 core 共享，热更新时只改这里
var level = zap.NewAtomicLevel()

// ResolveLevel 显式配置优先，否则 debug 模式输出调试日志
func ResolveLevel(cfg config.LogConfig, mode string) (zapcore.Level, error) {
	if s := strings.TrimSpace(cfg.Level); s != "" {
		return zapcore.ParseLevel(s)
	}
	if mode == "debug" {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return ec
}

// New 构造 logger；console 为 nil 时不输出到控制台
func New(cfg config.LogConfig, lvl zap.AtomicLevel, console io.Writer) *zap.Logger {
	ec := encoderConfig()
	var cores []zapcore.Core

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(ec), zapcore.AddSync(rotator), lvl))
	}
	if console != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(console), lvl))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", serviceName))
}

func InitLogger(cfg *config.Config) {
	lvl, err := ResolveLevel(cfg.Log, cfg.Server.Mode)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
	Log = New(cfg.Log, level, os.Stdout)
	if err != nil {
		Log.Warn("Invalid log level, using info", zap.String("level", cfg.Log.Level), zap.Error(err))
	}
}

// Reload 配置热更新时调整日志级别，文件路径等变更需要重启
func Reload(cfg *config.Config) error {
	lvl, err := ResolveLevel(cfg.Log, cfg.Server.Mode)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}
	if lvl != level.Level() {
		Log.Info("Log level changed", zap.Stringer("from", level.Level()), zap.Stringer("to", lvl))
		level.SetLevel(lvl)
	}
	return nil
}
