package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Tests here share package state and must not run in parallel.

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() {
		_ = Close()
		SetLevel(LevelInfo)
	})

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	got := buf.String()
	if strings.Contains(got, "debug 1") || strings.Contains(got, "info 2") {
		t.Errorf("below-level lines written: %q", got)
	}
	if !strings.Contains(got, "[WARN] warn 3") || !strings.Contains(got, "[ERROR] error 4") {
		t.Errorf("missing lines: %q", got)
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "callcache.log")
	_ = Close()
	if err := Init(path); err != nil {
		t.Fatal(err)
	}
	Infof("hello %s", "file")
	if err := Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[INFO] hello file") {
		t.Errorf("log file = %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn,
		"error": LevelError, "": LevelInfo, "loud": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestUninitializedIsSilent(t *testing.T) {
	_ = Close()
	Infof("dropped")
}
