package main

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommand_InProcessStore(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema to migrate")
}

func TestMigrateCommand_BadDirection(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "migrate", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument")
}

func TestMigrateCommand_MissingDirection(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "migrate")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail")
	assert.Contains(t, string(output), "accepts 1 arg(s), received 0")
}
