package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ProjectPath string        // プロジェクトファイルのパス（省略時は内蔵デモ）
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	Headless    bool          // ヘッドレスモード
	NoColor     bool          // ログのカラー出力を無効化
	ShowHelp    bool          // ヘルプ表示フラグ
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("karakuri", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.NoColor, "no-color", false, "ログのカラー出力を無効化")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("KARAKURI_HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("KARAKURI_TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("KARAKURI_LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// NO_COLOR の慣例に従う
	if !config.NoColor && os.Getenv("NO_COLOR") != "" {
		config.NoColor = true
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（プロジェクトファイルのパス）
	if fs.NArg() > 0 {
		config.ProjectPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	boolFlags := map[string]bool{
		"-h": true, "--h": true,
		"-help": true, "--help": true,
		"-headless": true, "--headless": true,
		"-no-color": true, "--no-color": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// 値を取るフラグの場合は次の引数も一緒に移動する
			// （-t 5 のような場合）
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `karakuri - block script engine

Usage:
  karakuri [options] [project-path]

Arguments:
  project-path  実行するプロジェクトファイル（JSON）のパス（省略可）
                省略した場合は内蔵のデモプロジェクトを実行

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし）
  --no-color                  ログのカラー出力を無効化
  -h, --help                  このヘルプを表示

Environment Variables:
  KARAKURI_HEADLESS=1         ヘッドレスモードを有効化
  KARAKURI_TIMEOUT=<seconds>  タイムアウト時間（秒）
  KARAKURI_LOG_LEVEL=<level>  ログレベル
  NO_COLOR=1                  ログのカラー出力を無効化

Examples:
  karakuri project.json           プロジェクトを指定して実行
  karakuri --timeout 10           10秒後に自動終了
  karakuri --headless             ヘッドレスモードで実行
  karakuri --log-level debug      デバッグログを有効化
  KARAKURI_HEADLESS=1 karakuri    環境変数でヘッドレスモード
`)
}
