package editor

import (
	"encoding/json"
	"fmt"

	"github.com/caffeineduck/codecollab/interp"
)

// DefaultKey is the storage key of the solo editor's state.
const DefaultKey = "soloEditorState"

// StateKey returns the storage key for user's editor state. An empty user
// maps to DefaultKey.
func StateKey(user string) string {
	if user == "" {
		return DefaultKey
	}
	return DefaultKey + ":" + user
}

// State is everything the solo editor persists between visits.
type State struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
	Stdin    string `json:"stdin"`
	Output   string `json:"output"`
}

// Defaults returns the state of a first visit: the JavaScript template in
// the dark theme.
func Defaults() State {
	code, _ := interp.Template(string(interp.DefaultLanguage))
	return State{
		Code:     code,
		Language: string(interp.DefaultLanguage),
		Theme:    interp.DefaultTheme,
	}
}

// Restore decodes saved state, filling blank fields from Defaults. A blank
// code field gets the template of the restored language rather than the
// default language.
func Restore(data []byte) (State, error) {
	var saved State
	if err := json.Unmarshal(data, &saved); err != nil {
		return Defaults(), fmt.Errorf("decode editor state: %w", err)
	}

	st := Defaults()
	if saved.Language != "" {
		st.Language = saved.Language
	}
	st.Code = saved.Code
	if st.Code == "" {
		st.Code, _ = interp.Template(st.Language)
	}
	if saved.Theme != "" {
		st.Theme = saved.Theme
	}
	st.Stdin = saved.Stdin
	st.Output = saved.Output
	return st, nil
}

// Marshal encodes s for storage.
func (s State) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Download returns the file name and contents for exporting the buffer.
func (s State) Download() (filename string, content []byte) {
	return "code." + interp.Extension(s.Language), []byte(s.Code)
}
