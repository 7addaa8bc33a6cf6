package cmd

import (
	"testing"

	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/memstore"

	"go.uber.org/zap/zaptest"
)

func TestOpenBackend_Memory(t *testing.T) {
	b, err := openBackend(config.DatabaseConfig{Driver: "memory"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer b.Close(zaptest.NewLogger(t))

	store, ok := b.ledger.(*memstore.Store)
	if !ok {
		t.Fatalf("Expected memstore ledger, got %T", b.ledger)
	}
	if b.products != store || b.orders != store {
		t.Errorf("Expected every role to share one in-memory store")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "notifier": false, "migrate": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}
