// Package app はコマンドライン解析からエンジン実行までの
// アプリケーション全体の流れを束ねる。
package app

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zurustar/karakuri/pkg/cli"
	"github.com/zurustar/karakuri/pkg/engine"
	"github.com/zurustar/karakuri/pkg/logger"
	"github.com/zurustar/karakuri/pkg/project"
	"github.com/zurustar/karakuri/pkg/stage"
)

// DemoProjectPath は内蔵デモプロジェクトのパス（embedFS内）
const DemoProjectPath = "demo/project.json"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	embedFS embed.FS
}

// New Applicationを作成
func New(embedFS embed.FS) *Application {
	return &Application{
		embedFS: embedFS,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started")

	// 3. プロジェクトの読み込み
	proj, name, err := app.loadProject()
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	app.log.Info("Project loaded", "name", name, "targets", len(proj.Targets), "tempo", proj.Tempo)

	// 4. エンジンの構築（音源は見つかった場合のみ）
	eng, err := app.buildEngine(proj)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer eng.Close()

	// 5. 実行（タイムアウトが指定されていれば期限付きコンテキスト）
	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
		app.log.Info("Timeout set", "duration", app.config.Timeout)
	}

	if app.config.Headless {
		err = stage.RunHeadless(ctx, eng)
	} else {
		err = stage.Run(ctx, eng, "karakuri - "+name)
	}
	if err != nil {
		return fmt.Errorf("failed to run stage: %w", err)
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel, app.config.NoColor); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadProject プロジェクトを読み込む
// パスが指定されていない場合は内蔵デモプロジェクトを使用する
func (app *Application) loadProject() (*project.Project, string, error) {
	if app.config.ProjectPath == "" {
		app.log.Info("No project specified, using embedded demo")
		proj, err := project.Load(app.embedFS, DemoProjectPath)
		if err != nil {
			return nil, "", err
		}
		return proj, "demo", nil
	}

	dir, file := filepath.Split(app.config.ProjectPath)
	if dir == "" {
		dir = "."
	}
	var fsys fs.FS = os.DirFS(dir)
	proj, err := project.Load(fsys, file)
	if err != nil {
		return nil, "", err
	}
	return proj, file, nil
}

// buildEngine SoundFontの有無に応じた音源付きでエンジンを構築
func (app *Application) buildEngine(proj *project.Project) (*engine.Engine, error) {
	audio := app.pickAudio()
	return engine.NewEngine(proj,
		engine.WithAudio(audio),
		engine.WithLogger(app.log),
	)
}

// pickAudio 使用する音源を選択する
// SoundFontが見つからない場合やヘッドレスモードでは無音で実行を続ける
func (app *Application) pickAudio() engine.AudioSystem {
	if app.config.Headless {
		// ヘッドレスモードではオーディオデバイスを初期化しない
		return engine.NullAudio{}
	}

	data, source := findSoundFont(app.embedFS, app.config.ProjectPath)
	if data == nil {
		app.log.Warn("SoundFont not found, notes will be silent", "searched", DefaultSoundFontName)
		return engine.NullAudio{}
	}

	synth, err := stage.NewSynthAudio(data)
	if err != nil {
		app.log.Warn("Failed to initialize synthesizer, notes will be silent", "source", source, "error", err)
		return engine.NullAudio{}
	}

	app.log.Info("SoundFont loaded", "source", source)
	return synth
}
