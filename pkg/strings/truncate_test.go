package strings

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, expected: "hello"},
		{name: "long string truncated", input: "hello world this is a long string", maxLen: 15, expected: "hello world ..."},
		{name: "newlines replaced", input: "hello\nworld", maxLen: 20, expected: "hello world"},
		{name: "whitespace collapsed", input: "  hello \t\t  world  ", maxLen: 20, expected: "hello world"},
		{name: "unicode truncation safe", input: "日本語テスト文字列", maxLen: 6, expected: "日本語..."},
		{name: "empty string", input: "", maxLen: 10, expected: ""},
		{name: "whitespace only", input: "   \n\t  ", maxLen: 10, expected: ""},
		{name: "small maxLen clamped", input: "hello", maxLen: 2, expected: "h..."},
		{name: "negative maxLen clamped", input: "hello", maxLen: -5, expected: "h..."},
		{name: "short string with small maxLen", input: "hi", maxLen: 3, expected: "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateDescription(tt.input, tt.maxLen))
		})
	}
}

func TestTruncate_RuneLength(t *testing.T) {
	result := Truncate("日本語テスト", 5)
	assert.Equal(t, "日本...", result)
	assert.Equal(t, 5, utf8.RuneCountInString(result))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Read a file.", FirstLine("\n  Read a file.\nMore details here."))
	assert.Equal(t, "", FirstLine(" \n \n"))
}
