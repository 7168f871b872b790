package interp

import (
	"path/filepath"
	"strings"
)

// Language identifies a source language known to the interpreter.
// The string value is the tag used by editors and the HTTP API.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	Cpp        Language = "cpp"
)

// DefaultLanguage is the language a fresh editor session starts with.
const DefaultLanguage = JavaScript

// LanguageInfo describes a supported language for pickers and downloads.
type LanguageInfo struct {
	Value     Language `json:"value"`
	Label     string   `json:"label"`
	Extension string   `json:"extension"`
}

var languages = []LanguageInfo{
	{Value: JavaScript, Label: "JavaScript", Extension: "js"},
	{Value: Python, Label: "Python", Extension: "py"},
	{Value: Java, Label: "Java", Extension: "java"},
	{Value: Cpp, Label: "C++", Extension: "cpp"},
}

// Languages returns the supported languages in display order.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// Supported reports whether tag names one of the four supported languages.
func Supported(tag string) bool {
	for _, l := range languages {
		if string(l.Value) == tag {
			return true
		}
	}
	return false
}

// Extension returns the file extension used when downloading a buffer
// written in tag. Unknown tags fall back to "txt".
func Extension(tag string) string {
	for _, l := range languages {
		if string(l.Value) == tag {
			return l.Extension
		}
	}
	return "txt"
}

// Lookup resolves a user-supplied language name, accepting the short
// aliases people type on the command line ("js", "py", "c++").
func Lookup(name string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "js", "javascript", "node":
		return JavaScript, true
	case "py", "python", "python3":
		return Python, true
	case "java":
		return Java, true
	case "cpp", "c++", "cc", "cxx":
		return Cpp, true
	}
	return "", false
}

// Detect guesses the language from a file name's extension.
func Detect(filename string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".mjs", ".cjs":
		return JavaScript, true
	case ".py":
		return Python, true
	case ".java":
		return Java, true
	case ".cpp", ".cc", ".cxx", ".hpp", ".h":
		return Cpp, true
	}
	return "", false
}

// Theme is an editor color theme.
type Theme struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DefaultTheme is the theme a fresh editor session starts with.
const DefaultTheme = "vs-dark"

// Themes returns the editor themes in display order.
func Themes() []Theme {
	return []Theme{
		{Value: "vs-dark", Label: "Dark"},
		{Value: "vs-light", Label: "Light"},
		{Value: "hc-black", Label: "High Contrast"},
	}
}
