package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet_Defaults(t *testing.T) {
	info := Get()
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
}

func TestString_DevBuild(t *testing.T) {
	info := Info{Version: "dev", CommitHash: "abc1234", BuildTime: "now"}
	assert.Contains(t, info.String(), "mediator dev")
}

func TestString_TaggedBuild(t *testing.T) {
	info := Info{Version: "1.2.3", CommitHash: "abc1234", BuildTime: "now"}
	assert.Contains(t, info.String(), "1.2.3")
}

func TestShort_TruncatesCommitHash(t *testing.T) {
	info := Info{CommitHash: "abcdef1234567"}
	assert.Equal(t, "abcdef1", info.Short())
}

func TestShort_ShortHashUnchanged(t *testing.T) {
	info := Info{CommitHash: "abc"}
	assert.Equal(t, "abc", info.Short())
}
