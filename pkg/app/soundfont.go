package app

import (
	"embed"
	"os"
	"path/filepath"
)

// DefaultSoundFontName は検索対象のSoundFontファイル名
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont SoundFontファイルを以下の優先順位で検索する:
//  1. 埋め込みsoundfontsディレクトリ
//  2. プロジェクトファイルと同じディレクトリ
//  3. カレントディレクトリ
//
// 見つかった場合はファイル内容と出所の説明を返し、
// 見つからない場合は (nil, "") を返す。
func findSoundFont(embedFS embed.FS, projectPath string) ([]byte, string) {
	// 1. 埋め込みsoundfontsディレクトリ
	embeddedPath := "soundfonts/" + DefaultSoundFontName
	if data, err := embedFS.ReadFile(embeddedPath); err == nil && len(data) > 0 {
		return data, "embedded:" + embeddedPath
	}

	// 2. プロジェクトファイルと同じディレクトリ
	if projectPath != "" {
		sfPath := filepath.Join(filepath.Dir(projectPath), DefaultSoundFontName)
		if data, err := os.ReadFile(sfPath); err == nil && len(data) > 0 {
			return data, sfPath
		}
	}

	// 3. カレントディレクトリ
	if data, err := os.ReadFile(DefaultSoundFontName); err == nil && len(data) > 0 {
		return data, DefaultSoundFontName
	}

	return nil, ""
}
