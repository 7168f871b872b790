package interp

import "testing"

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"javascript": "js",
		"python":     "py",
		"java":       "java",
		"cpp":        "cpp",
		"rust":       "txt",
		"":           "txt",
	}
	for tag, want := range tests {
		if got := Extension(tag); got != want {
			t.Errorf("Extension(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"js", JavaScript, true},
		{"Python", Python, true},
		{"c++", Cpp, true},
		{"java", Java, true},
		{"go", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]Language{
		"main.js":    JavaScript,
		"script.PY":  Python,
		"Main.java":  Java,
		"prog.cc":    Cpp,
		"README.md":  "",
		"no-ext":     "",
	}
	for name, want := range tests {
		got, _ := Detect(name)
		if got != want {
			t.Errorf("Detect(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("cpp") {
		t.Error("cpp should be supported")
	}
	if Supported("c++") {
		t.Error("aliases are not language tags")
	}
}

func TestThemes(t *testing.T) {
	themes := Themes()
	if len(themes) != 3 || themes[0].Value != DefaultTheme {
		t.Errorf("unexpected themes %+v", themes)
	}
}
