package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSI_CSIColor(t *testing.T) {
	in := []byte("\x1b[31mhello\x1b[0m world")
	assert.Equal(t, "hello world", string(StripANSI(in)))
}

func TestStripANSI_NoEscapes(t *testing.T) {
	in := []byte("plain text\n")
	assert.Equal(t, "plain text\n", string(StripANSI(in)))
}

func TestStripANSI_OSCTitle(t *testing.T) {
	in := []byte("\x1b]0;window title\x07prompt> ")
	assert.Equal(t, "prompt> ", string(StripANSI(in)))
}

func TestStripANSI_TrailingEscape(t *testing.T) {
	in := []byte("text\x1b")
	assert.Equal(t, "text", string(StripANSI(in)))
}
