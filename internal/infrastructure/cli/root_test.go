package cli

import "testing"

func TestRootCmd_RegistersCommands(t *testing.T) {
	want := map[string]bool{
		"plan":    false,
		"plans":   false,
		"show":    false,
		"config":  false,
		"usage":   false,
		"audit":   false,
		"version": false,
		"mcp":     false,
	}

	for _, cmd := range RootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestRootCmd_Use(t *testing.T) {
	if RootCmd.Use != "taskpilot" {
		t.Errorf("Use = %q", RootCmd.Use)
	}
}
