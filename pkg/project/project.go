// Package project loads block-script projects. A project is a JSON
// document listing targets (one stage plus any number of sprites), each
// with its variables and block graph. Files that are not valid UTF-8
// are assumed to be legacy Shift-JIS exports and converted before
// decoding.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/karakuri/pkg/block"
	"github.com/zurustar/karakuri/pkg/target"
)

// ErrBadProject marks structurally invalid project documents.
var ErrBadProject = errors.New("invalid project")

// DefaultTempo is the tempo in beats per minute used when the project
// does not set one.
const DefaultTempo = 60

type targetData struct {
	Name      string                  `json:"name"`
	IsStage   bool                    `json:"isStage"`
	X         float64                 `json:"x"`
	Y         float64                 `json:"y"`
	Direction *float64                `json:"direction,omitempty"`
	Visible   *bool                   `json:"visible,omitempty"`
	Variables map[string]any          `json:"variables,omitempty"`
	Blocks    map[string]*block.Block `json:"blocks"`
}

type projectData struct {
	Tempo   int          `json:"tempo,omitempty"`
	Targets []targetData `json:"targets"`
}

// Project is a decoded project: its targets in file order, with the
// stage singled out.
type Project struct {
	Tempo   int
	Targets []*target.Target
	Stage   *target.Target
}

// Load reads and decodes the project at path within fsys. It works the
// same over os.DirFS and an embedded FS.
func Load(fsys fs.FS, path string) (*Project, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", path, err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", path, err)
	}
	return p, nil
}

// Decode parses project data. Exactly one stage target is required.
func Decode(data []byte) (*Project, error) {
	if !utf8.Valid(data) {
		converted, err := convertShiftJIS(data)
		if err != nil {
			return nil, fmt.Errorf("%w: neither UTF-8 nor Shift-JIS: %v", ErrBadProject, err)
		}
		data = converted
	}

	var pd projectData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProject, err)
	}
	if len(pd.Targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrBadProject)
	}

	p := &Project{Tempo: pd.Tempo}
	if p.Tempo <= 0 {
		p.Tempo = DefaultTempo
	}

	for _, td := range pd.Targets {
		if td.Name == "" {
			return nil, fmt.Errorf("%w: target with empty name", ErrBadProject)
		}
		tgt := target.New(td.Name, td.IsStage, block.NewContainer(td.Blocks))
		tgt.X, tgt.Y = td.X, td.Y
		if td.Direction != nil {
			tgt.SetDirection(*td.Direction)
		}
		if td.Visible != nil {
			tgt.Visible = *td.Visible
		}
		for name, v := range td.Variables {
			tgt.SetLocal(name, v)
		}
		if td.IsStage {
			if p.Stage != nil {
				return nil, fmt.Errorf("%w: multiple stage targets", ErrBadProject)
			}
			p.Stage = tgt
		}
		p.Targets = append(p.Targets, tgt)
	}
	if p.Stage == nil {
		return nil, fmt.Errorf("%w: no stage target", ErrBadProject)
	}
	for _, tgt := range p.Targets {
		tgt.BindStage(p.Stage)
	}
	return p, nil
}

// convertShiftJIS converts Shift-JIS encoded data to UTF-8.
func convertShiftJIS(data []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	converted, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return converted, nil
}
