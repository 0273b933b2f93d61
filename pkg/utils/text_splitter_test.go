package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Short(t *testing.T) {
	assert.Equal(t, []string{"T1059 Command and Scripting Interpreter"}, SplitText("  T1059 Command and Scripting Interpreter \n", 100, 10))
	assert.Nil(t, SplitText("   ", 100, 10))
}

func TestSplitText_BreaksAtWhitespace(t *testing.T) {
	text := "adversaries may abuse command and script interpreters to execute commands scripts or binaries"
	chunks := SplitText(text, 30, 0)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 30)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestSplitText_Overlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 5)
	chunks := SplitText(text, 20, 5)

	require.Len(t, chunks, 3)
	assert.Equal(t, text[:20], chunks[0])
	assert.Equal(t, text[15:35], chunks[1])
	assert.Equal(t, text[30:], chunks[2])
}
