package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/domain"
)

func TestRecognize_FileDelete(t *testing.T) {
	kind, prompt, details, ok := recognize([]byte("delete file 'old.txt'? (y/n)"))
	require.True(t, ok)
	assert.Equal(t, domain.KindFileDelete, kind)
	assert.Equal(t, "old.txt", details["file"])
	assert.Contains(t, prompt, "delete file")
}

func TestRecognize_FileWrite(t *testing.T) {
	kind, _, details, ok := recognize([]byte("overwrite main.go? (y/n)"))
	require.True(t, ok)
	assert.Equal(t, domain.KindFileWrite, kind)
	assert.Equal(t, "main.go", details["file"])
}

func TestRecognize_PackageInstall(t *testing.T) {
	kind, _, details, ok := recognize([]byte("npm install lodash\ncontinue? (y/n)"))
	require.True(t, ok)
	// package_install cue appears first in buffer and is higher priority
	// than generic_yes_no regardless of position.
	assert.Equal(t, domain.KindPackageInstall, kind)
	assert.Equal(t, "lodash", details["package"])
}

func TestRecognize_GenericYesNo(t *testing.T) {
	kind, _, _, ok := recognize([]byte("continue? (yes/no)"))
	require.True(t, ok)
	assert.Equal(t, domain.KindGenericYesNo, kind)
}

func TestRecognize_NoMatch(t *testing.T) {
	_, _, _, ok := recognize([]byte("compiling package main..."))
	assert.False(t, ok)
}

func TestRecognize_TieBreakFileDeleteOverFileWrite(t *testing.T) {
	kind, _, _, ok := recognize([]byte("overwrite a.go? delete file b.go?"))
	require.True(t, ok)
	assert.Equal(t, domain.KindFileDelete, kind)
}
