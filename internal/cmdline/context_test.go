package cmdline

import (
	"os"
	"testing"
)

func TestNewContextSnapshotsEnvironment(t *testing.T) {
	cli, err := NewContext("echo hi")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	if cli.Command() != "echo hi" {
		t.Errorf("Command() = %q, want %q", cli.Command(), "echo hi")
	}

	cwd, _ := os.Getwd()
	if cli.Dir() != cwd {
		t.Errorf("Dir() = %q, want %q", cli.Dir(), cwd)
	}

	env := cli.Environ()
	if len(env) != len(os.Environ()) {
		t.Errorf("Environ() has %d entries, want %d", len(env), len(os.Environ()))
	}
}

func TestEnvironReturnsCopy(t *testing.T) {
	cli, err := NewContext("")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	env := cli.Environ()
	if len(env) == 0 {
		t.Skip("empty environment")
	}
	env[0] = "MUTATED=yes"

	if cli.Environ()[0] == "MUTATED=yes" {
		t.Error("mutating the returned slice changed the snapshot")
	}
}

func TestSetExitStatusIsOneShot(t *testing.T) {
	cli, err := NewContext("")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	if cli.Released() {
		t.Fatal("context released before any report")
	}
	select {
	case <-cli.Done():
		t.Fatal("Done closed before any report")
	default:
	}

	if !cli.SetExitStatus(42) {
		t.Fatal("first SetExitStatus returned false")
	}
	if cli.SetExitStatus(7) {
		t.Fatal("second SetExitStatus returned true")
	}

	if got := cli.ExitStatus(); got != 42 {
		t.Errorf("ExitStatus() = %d, want 42 (first report wins)", got)
	}
	if !cli.Released() {
		t.Error("context not released after report")
	}

	select {
	case <-cli.Done():
	default:
		t.Error("Done not closed after report")
	}
}
