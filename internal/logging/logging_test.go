package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("player", "alice").Debug("joined")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "joined", line["msg"])
	assert.Equal(t, "alice", line["player"])
}

func TestNew_EnvFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")
	var buf bytes.Buffer
	l := New("", "", &buf)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.Info("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_BadLevelIsInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	l := New("loud", "", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
