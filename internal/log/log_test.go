package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupVerbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantInfo  bool
		wantDebug bool
	}{
		{"quiet", 0, false, false},
		{"info", 1, true, false},
		{"debug", 2, true, true},
		{"trace", 3, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(&buf, tt.verbosity)
			t.Cleanup(func() { Setup(&bytes.Buffer{}, 0) })

			Info("info line", "k", "v")
			Debug("debug line")

			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
		})
	}
}

func TestErrorCarriesErrAndFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, 0)
	t.Cleanup(func() { Setup(&bytes.Buffer{}, 0) })

	Error("load failed", errors.New("boom"), "path", "/tmp/x.ics", "dangling")

	out := buf.String()
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "/tmp/x.ics")
	assert.NotContains(t, out, "dangling")
}

func TestPairsSkipsNonStringKeys(t *testing.T) {
	got := pairs([]any{"a", 1, 2, "b", "c"})
	assert.Equal(t, []any{"a", 1}, got)
}
