package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONOutputWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("prod", "info", &buf).WithFields(map[string]interface{}{"quote_id": "q1"})

	l.Warnf("gas estimate defaulted to %d", 200000)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "q1", line["quote_id"])
	require.Equal(t, "gas estimate defaulted to 200000", line["message"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("prod", "", &buf)

	l.Debugf("hidden")
	require.Zero(t, buf.Len())

	l = NewWithWriter("prod", "debug", &buf)
	l.WithField("k", 1).Debugf("shown")
	require.Contains(t, buf.String(), "shown")
}
