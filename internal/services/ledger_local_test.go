package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestLocalLedgerHashIsSha256Hex(t *testing.T) {
	ledger := NewLocalLedger(testLogger(t))
	data := []byte("bytes of logo.png")

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])
	if got := ledger.HashBytes(data); got != want {
		t.Fatalf("hash: want=%s got=%s", want, got)
	}
}

func TestLocalLedgerRegisterFlipsExists(t *testing.T) {
	ledger := NewLocalLedger(testLogger(t))
	ctx := context.Background()
	data := []byte("bytes of logo.png")

	found, err := ledger.Exists(ctx, data)
	if err != nil {
		t.Fatalf("Exists before register: %v", err)
	}
	if found {
		t.Fatalf("exists before register: want=false got=true")
	}

	receipt, err := ledger.Register(ctx, data, "Logo v1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if receipt.DesignHash != ledger.HashBytes(data) {
		t.Fatalf("receipt hash: want=%s got=%s", ledger.HashBytes(data), receipt.DesignHash)
	}
	if receipt.TransactionHash == "" {
		t.Fatalf("receipt must carry a transaction hash")
	}
	if receipt.Timestamp == 0 {
		t.Fatalf("receipt must carry the inclusion timestamp")
	}

	found, err = ledger.Exists(ctx, data)
	if err != nil {
		t.Fatalf("Exists after register: %v", err)
	}
	if !found {
		t.Fatalf("exists after register: want=true got=false")
	}

	other, err := ledger.Exists(ctx, []byte("never registered bytes"))
	if err != nil {
		t.Fatalf("Exists other: %v", err)
	}
	if other {
		t.Fatalf("exists for unregistered bytes: want=false got=true")
	}
}

func TestLocalLedgerCountAppends(t *testing.T) {
	ledger := NewLocalLedger(testLogger(t))
	ctx := context.Background()
	data := []byte("same bytes")

	for i := 0; i < 3; i++ {
		if _, err := ledger.Register(ctx, data, "duplicate"); err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
	}
	count, err := ledger.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count: want=3 got=%d", count)
	}
}

func TestLocalLedgerInitializeIdempotent(t *testing.T) {
	ledger := NewLocalLedger(testLogger(t))
	ctx := context.Background()

	if err := ledger.InitializeRegistry(ctx); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if _, err := ledger.Register(ctx, []byte("data"), "kept"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := ledger.InitializeRegistry(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	count, err := ledger.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after re-initialize: want=1 got=%d", count)
	}
}

func TestLocalLedgerStats(t *testing.T) {
	ledger := NewLocalLedger(testLogger(t))
	ctx := context.Background()

	if _, err := ledger.Register(ctx, []byte("data"), "one"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	stats, err := ledger.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDesigns != 1 {
		t.Fatalf("total designs: want=1 got=%d", stats.TotalDesigns)
	}
	if stats.Network != "local" {
		t.Fatalf("network: want=local got=%s", stats.Network)
	}
	if stats.Account == "" {
		t.Fatalf("stats must report the owner account")
	}
}
