package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

const leakSource = `mechanism density leak {
  parameter gbar: [S/cm2] = 0.0003;
  state m: real;
  initial m = 0;
  evolve m' = -m;
  effect current_density_pair = { i = gbar * m; g = gbar; };
}
`

func TestCompileCommandWritesHeaderAndBody(t *testing.T) {
	tempDir := t.TempDir()
	srcPath := filepath.Join(tempDir, "leak.arblang")
	if err := os.WriteFile(srcPath, []byte(leakSource), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	prefix := filepath.Join(tempDir, "out")

	outputPrefix, namespace, dumpDescriptor = prefix, "demo", false
	if err := compileMechanism(compileCmd, []string{srcPath}); err != nil {
		t.Fatalf("compileMechanism: %v", err)
	}

	if _, err := os.Stat(prefix + ".hpp"); err != nil {
		t.Errorf("expected %s.hpp to exist: %v", prefix, err)
	}
	if _, err := os.Stat(prefix + ".cpp"); err != nil {
		t.Errorf("expected %s.cpp to exist: %v", prefix, err)
	}
}

func TestCompileCommandRejectsMissingNamespace(t *testing.T) {
	tempDir := t.TempDir()
	srcPath := filepath.Join(tempDir, "leak.arblang")
	if err := os.WriteFile(srcPath, []byte(leakSource), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	outputPrefix, namespace, dumpDescriptor = filepath.Join(tempDir, "out"), "", false
	if err := compileMechanism(compileCmd, []string{srcPath}); err == nil {
		t.Fatal("expected an error for a missing -N namespace")
	}
}
