package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "/tmp/downloads", "/tmp/downloads"},
		{"empty", "", "''"},
		{"spaces", "/tmp/my downloads", "'/tmp/my downloads'"},
		{"single quote", "it's", `'it'"'"'s'`},
		{"double quote", `say "hi"`, `'say "hi"'`},
		{"dollar", "$HOME", "'$HOME'"},
		{"output template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"format selector", "bestvideo+bestaudio", "bestvideo+bestaudio"},
		{"format fallback", "137/best", "137/best"},
		{"query string", "https://www.youtube.com/watch?v=abc&t=10", "'https://www.youtube.com/watch?v=abc&t=10'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	got := ShellEscapeCommand("/opt/my tools/yt-dlp",
		"-f", "22",
		"-P", "/srv/video downloads",
		"-o", "%(title)s.%(ext)s",
		"--", "https://youtu.be/abc?si=x")

	assert.Equal(t,
		"'/opt/my tools/yt-dlp' -f 22 -P '/srv/video downloads' -o '%(title)s.%(ext)s' -- 'https://youtu.be/abc?si=x'",
		got)
}

func TestIsShellSpecialChar(t *testing.T) {
	for _, c := range " \t'\"$`\\!*?[](){}|;<>&~#%\n\r" {
		assert.True(t, isShellSpecialChar(c), "expected %q to be special", c)
	}
	for _, c := range "abcABC123_-./:@=+" {
		assert.False(t, isShellSpecialChar(c), "expected %q to be plain", c)
	}
}
