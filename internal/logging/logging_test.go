package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	logger, err := New(&buf, "warn")
	req.NoError(err)

	logger.Info("hidden")
	Component(logger, "dispatcher").Warn("relay failed")

	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), "relay failed")
	req.Contains(buf.String(), "component=dispatcher")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud")
	require.Error(t, err)
}
