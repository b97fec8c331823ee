package server

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局可用的 SugaredLogger。未初始化前为 Nop，便于测试直接使用本包。
var Log = zap.NewNop().Sugar()

// InitLogger 初始化 zap 日志到本地文件（支持滚动），toStderr 时同时输出到控制台
// filePath: 日志文件路径，如 "battle.log"；为空则只写控制台
func InitLogger(filePath string, toStderr bool) error {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	var cores []zapcore.Core
	if filePath != "" {
		// 文件滚动策略：10MB 每文件，保留3个备份，最多7天
		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   false,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), zapcore.DebugLevel))
	}
	if toStderr || filePath == "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.InfoLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Log = logger.Sugar()
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
