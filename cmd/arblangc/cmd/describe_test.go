package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDescribeCommandQueriesDescriptorPath(t *testing.T) {
	tempDir := t.TempDir()
	descriptorPath := filepath.Join(tempDir, "leak.json")
	doc := `{"name":"leak","kind":"density","states":[{"name":"m"}]}`
	if err := os.WriteFile(descriptorPath, []byte(doc), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	if err := describeDescriptor(describeCmd, []string{descriptorPath, "states.0.name"}); err != nil {
		t.Fatalf("describeDescriptor: %v", err)
	}
	w.Close()

	buf := make([]byte, 256)
	n, _ := r.Read(buf)
	if got := strings.TrimSpace(string(buf[:n])); got != "m" {
		t.Fatalf("describeDescriptor output = %q, want \"m\"", got)
	}
}

func TestDescribeCommandErrorsOnMissingPath(t *testing.T) {
	tempDir := t.TempDir()
	descriptorPath := filepath.Join(tempDir, "leak.json")
	if err := os.WriteFile(descriptorPath, []byte(`{"name":"leak"}`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := describeDescriptor(describeCmd, []string{descriptorPath, "nonexistent"}); err == nil {
		t.Fatal("expected an error for a nonexistent gjson path")
	}
}
