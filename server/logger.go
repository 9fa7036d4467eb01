package server

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局可用的 SugaredLogger；InitLogger 之前为空实现
var Log = zap.NewNop().Sugar()

// InitLogger 初始化 zap 日志：文件（支持滚动）记录 Debug 及以上，控制台输出 Info 及以上
// filePath: 日志文件路径，如 "server.log"
func InitLogger(filePath string) error {
	// 文件滚动策略：10MB 每文件，保留3个备份，最多7天
	lj := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   false,
	}

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
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(lj), zapcore.DebugLevel)

	// 控制台只保留时间与消息，便于运维阅读
	stdCfg := encCfg
	stdCfg.CallerKey = ""
	stdCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	stdCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	stdCore := zapcore.NewCore(zapcore.NewConsoleEncoder(stdCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel)

	logger := zap.New(zapcore.NewTee(fileCore, stdCore), zap.AddCaller())
	Log = logger.Sugar()
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
