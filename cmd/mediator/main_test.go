package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand_SubcommandsRegistered(t *testing.T) {
	expected := []string{"serve", "worker", "config", "version"}
	for _, name := range expected {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		assert.Truef(t, found, "command %q not registered", name)
	}
}

func TestWorkerCommand_SubcommandsRegistered(t *testing.T) {
	expected := []string{"spawn", "ls", "status"}
	for _, name := range expected {
		found := false
		for _, cmd := range workerCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		assert.Truef(t, found, "worker subcommand %q not registered", name)
	}
}

func TestConfigCommand_SubcommandsRegistered(t *testing.T) {
	found := false
	for _, cmd := range configCmd.Commands() {
		if cmd.Name() == "show" {
			found = true
		}
	}
	assert.True(t, found, "config show not registered")
}
