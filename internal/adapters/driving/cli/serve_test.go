package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Long(t *testing.T) {
	assert.Contains(t, serveCmd.Long, "/embed-chunks")
	assert.Contains(t, serveCmd.Long, "503")
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag, "addr flag should exist")
	assert.Equal(t, "", flag.DefValue)
}

func TestServeCmd_NilService(t *testing.T) {
	_, err := runCommand(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service not configured")
}
