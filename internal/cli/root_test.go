package cli

import "testing"

func TestRootRegistersCommands(t *testing.T) {
	want := []string{"serve", "orchestrate", "chat", "actions", "status", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestActionsResolveFlagsAreExclusive(t *testing.T) {
	// Both unset and both set are invalid; resolveAction enforces it at
	// runtime, the flags just need to exist.
	if actionsCmd.Flags().Lookup("approve") == nil || actionsCmd.Flags().Lookup("reject") == nil {
		t.Fatal("approve/reject flags missing")
	}
}
