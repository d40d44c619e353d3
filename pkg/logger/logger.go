package logger

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

var globalLogger *slog.Logger

// InitLogger ログレベルに応じてslogを初期化
// ハンドラはstderrに書き込むcharmbracelet/logロガー
func InitLogger(level string, noColor bool) error {
	var charmLevel log.Level

	switch level {
	case "debug":
		charmLevel = log.DebugLevel
	case "info":
		charmLevel = log.InfoLevel
	case "warn":
		charmLevel = log.WarnLevel
	case "error":
		charmLevel = log.ErrorLevel
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           charmLevel,
	})

	handler.SetColorProfile(termenv.ANSI256)
	if noColor {
		handler.SetColorProfile(termenv.Ascii)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}
