package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//calhours//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:1\r\nSUMMARY:Meeting\r\nDTSTART:20240115T090000Z\r\nDTEND:20240115T100000Z\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestExecuteExitCodes(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "cal.ics")
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cal, []byte(calendar), 0o600))
	require.NoError(t, os.WriteFile(cfg, nil, 0o600))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"--config", cfg, "-c", cal, "/Meet/Work/"}, 0},
		{"missing calendar", []string{"--config", cfg}, 2},
		{"bad date", []string{"--config", cfg, "-c", cal, "-e", "soon"}, 2},
		{"bad rule", []string{"--config", cfg, "-c", cal, "/onlyone/"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, execute(context.Background(), tt.args))
		})
	}
}
