package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(dir)
	require.NoError(t, err)
	defer func() { _ = log.Sync() }()

	_, err = os.Stat(dir)
	require.NoError(t, err)

	// Write once; just ensuring no panic / basic functionality.
	log.Info("test_message_from_logging_test")
}
