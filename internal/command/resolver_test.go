package command

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		env  map[string]string
		want []string
	}{
		{
			name: "command wrapped in shell",
			cmd:  "echo hi",
			want: []string{"/bin/sh", "echo hi"},
		},
		{
			name: "command with arguments stays a single operand",
			cmd:  "ls -la /tmp",
			want: []string{"/bin/sh", "ls -la /tmp"},
		},
		{
			name: "no command falls back to SHELL",
			cmd:  "",
			env:  map[string]string{"SHELL": "/bin/bash"},
			want: []string{"/bin/bash"},
		},
		{
			name: "no command and no SHELL yields empty program",
			cmd:  "",
			want: []string{""},
		},
		{
			name: "command ignores SHELL",
			cmd:  "top",
			env:  map[string]string{"SHELL": "/bin/zsh"},
			want: []string{"/bin/sh", "top"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string {
				return tt.env[key]
			}
			got := Resolve(tt.cmd, getenv)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestResolveNeverUsesDashC(t *testing.T) {
	argv := Resolve("sleep 1", func(string) string { return "" })
	for _, arg := range argv {
		if arg == "-c" {
			t.Fatalf("argv %v contains -c, command must be passed as a bare operand", argv)
		}
	}
	if len(argv) != 2 {
		t.Fatalf("argv = %v, want exactly two elements", argv)
	}
}
