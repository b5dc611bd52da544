// Package cmdtest provides a trimmed-down equivalent of snapd's
// testutil.MockCommand: fake an external binary on PATH so tests can drive
// the Compiler Driver and Policy Store Client without a real SELinux
// toolchain installed.
package cmdtest

import (
	"fmt"
	"os"
	"path/filepath"
)

// MockCmd is a faked external command.
type MockCmd struct {
	binDir  string
	logPath string
	name    string
}

// MockCommand creates an executable named name in dir's bin subdirectory
// that appends its argv to a log file in dir and then runs script (a shell
// fragment; "" just exits 0). The directory to prepend to PATH is the
// returned MockCmd's BinDir.
func MockCommand(dir, name, script string) (*MockCmd, error) {
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return nil, err
	}
	logPath := filepath.Join(dir, name+".log")

	body := fmt.Sprintf("#!/bin/sh\necho \"$0 $@\" >> %q\n%s\n", logPath, script)
	path := filepath.Join(binDir, name)
	if err := os.WriteFile(path, []byte(body), 0755); err != nil {
		return nil, err
	}
	return &MockCmd{binDir: binDir, logPath: logPath, name: name}, nil
}

// BinDir is the directory containing the fake executable; prepend it to
// PATH for the duration of the test.
func (m *MockCmd) BinDir() string { return m.binDir }

// Calls returns the raw logged invocation lines, one per call.
func (m *MockCmd) Calls() []string {
	data, err := os.ReadFile(m.logPath)
	if err != nil {
		return nil
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, string(data[start:i]))
			}
			start = i + 1
		}
	}
	return lines
}
