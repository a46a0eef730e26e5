package editor

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Session is the subset of editor State worth persisting across process
// restarts: the document text and where the user left off. It is written to
// share/workspace.yaml under $STRATUM_HOME by the host embedding the editor
// widget, not by this package directly.
type Session struct {
	Text         string `yaml:"text"`
	CursorLine   int    `yaml:"cursor_line"`
	CursorColumn int    `yaml:"cursor_column"`
	ScrollTop    int    `yaml:"scroll_top"`
}

// Snapshot captures s's persistable fields.
func (s *State) Snapshot() Session {
	return Session{
		Text:         s.Text(),
		CursorLine:   s.Cursor.Line,
		CursorColumn: s.Cursor.Column,
		ScrollTop:    s.Viewport.TopLine,
	}
}

// Restore rebuilds editor State from a saved Session.
func Restore(sess Session) *State {
	s := NewState(sess.Text)
	s.MoveCursorTo(Position{Line: sess.CursorLine, Column: sess.CursorColumn})
	s.Viewport.TopLine = sess.ScrollTop
	return s
}

// SaveSessionFile marshals sess as YAML to path (share/workspace.yaml).
func SaveSessionFile(path string, sess Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSessionFile reads and unmarshals a workspace.yaml file.
func LoadSessionFile(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}
