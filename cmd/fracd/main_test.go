package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fracledger/core"
	"fracledger/crypto"
	"fracledger/storage"
)

func TestResolveGenesisPathPrecedence(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key != genesisPathEnv {
			t.Fatalf("unexpected lookup key: %s", key)
		}
		return "env-path", true
	}

	t.Run("cli flag takes precedence", func(t *testing.T) {
		path, err := resolveGenesisPath("cli-path", "cfg-path", lookup)
		if err != nil {
			t.Fatalf("resolveGenesisPath returned error: %v", err)
		}
		if path != "cli-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "cli-path")
		}
	})

	t.Run("environment overrides config", func(t *testing.T) {
		path, err := resolveGenesisPath("", "cfg-path", lookup)
		if err != nil {
			t.Fatalf("resolveGenesisPath returned error: %v", err)
		}
		if path != "env-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "env-path")
		}
	})

	t.Run("config used when no other sources", func(t *testing.T) {
		emptyLookup := func(string) (string, bool) { return "", false }
		path, err := resolveGenesisPath("", " cfg-path ", emptyLookup)
		if err != nil {
			t.Fatalf("resolveGenesisPath returned error: %v", err)
		}
		if path != "cfg-path" {
			t.Fatalf("unexpected path: got %q want %q", path, "cfg-path")
		}
	})

	t.Run("error when nothing configured", func(t *testing.T) {
		emptyLookup := func(string) (string, bool) { return "", false }
		if _, err := resolveGenesisPath("", "", emptyLookup); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func account(b byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{b}, 20))
	return out
}

func writeGenesis(t *testing.T) string {
	t.Helper()
	doc := strings.Join([]string{
		"authority: " + crypto.FormatAccount(account(0xA1)),
		"accounts:",
		"  stakingVault: " + crypto.FormatAccount(account(0xB1)),
		"  rewardsVault: " + crypto.FormatAccount(account(0xB2)),
		"  treasury: " + crypto.FormatAccount(account(0xB3)),
		"rewardPool: \"1000000\"",
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	return path
}

func TestEnsureGenesisAppliesOnce(t *testing.T) {
	ledger, err := core.NewLedger(storage.NewMemDB())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	path := writeGenesis(t)
	noEnv := func(string) (string, bool) { return "", false }
	if err := ensureGenesis(ledger, path, "", noEnv, slog.Default()); err != nil {
		t.Fatalf("ensure genesis: %v", err)
	}
	// Second start finds the marker and does not touch the file.
	if err := ensureGenesis(ledger, filepath.Join(t.TempDir(), "missing.yaml"), "", noEnv, slog.Default()); err != nil {
		t.Fatalf("second ensure genesis: %v", err)
	}
	pool, err := ledger.Pool()
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if pool.Remaining != 1_000_000_000_000_000 {
		t.Fatalf("unexpected remaining %d", pool.Remaining)
	}
}

func TestWriteStatement(t *testing.T) {
	ledger, err := core.NewLedger(storage.NewMemDB(), core.WithClock(func() int64 { return 1_700_000_000 }))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	noEnv := func(string) (string, bool) { return "", false }
	if err := ensureGenesis(ledger, writeGenesis(t), "", noEnv, slog.Default()); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	recipient := account(0x05)
	if _, err := ledger.GrantReward(account(0xA1), recipient, 0, 10_000_000_000, 0); err != nil {
		t.Fatalf("grant: %v", err)
	}
	var out bytes.Buffer
	if err := writeStatement(ledger, recipient, "csv", &out); err != nil {
		t.Fatalf("statement: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "trading_rebate,immediate,active,10000000000,0,10000000000") {
		t.Fatalf("unexpected statement:\n%s", text)
	}
	if !strings.Contains(text, "# sha256 ") {
		t.Fatalf("missing checksum line:\n%s", text)
	}
	if err := writeStatement(ledger, recipient, "xml", &out); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
