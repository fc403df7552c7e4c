package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
	"github.com/bhavya-jpg/proofora-backend/internal/registry"
)

// localLedger serves the LedgerService contract from the in-process registry
// mirror. It exists so the API runs without a funded chain account and so
// the register/exists/count semantics are testable without network access.
type localLedger struct {
	log   *logger.Logger
	store *registry.Store
	owner string
}

func NewLocalLedger(log *logger.Logger) LedgerService {
	owner := "0x" + hashHex([]byte("proofora-local-owner"))[:32]
	return &localLedger{
		log:   log.With("service", "LocalLedger"),
		store: registry.New(),
		owner: owner,
	}
}

func (l *localLedger) HashBytes(data []byte) string {
	return hashHex(data)
}

func (l *localLedger) Register(ctx context.Context, data []byte, title string) (*LedgerReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LedgerError{Op: "register", Err: err}
	}
	designHash := l.HashBytes(data)
	entry := l.store.Register(l.owner, designHash, title)
	// synthetic transaction hash, stable per (hash, inclusion time)
	txHash := "0x" + hashHex([]byte(designHash+strconv.FormatInt(entry.Timestamp, 10)+strconv.Itoa(l.store.Count(l.owner))))
	l.log.Info("Design registered on local ledger", "design_hash", designHash, "tx_hash", txHash)
	return &LedgerReceipt{
		DesignHash:      designHash,
		TransactionHash: txHash,
		Timestamp:       entry.Timestamp,
		ExplorerURL:     "",
	}, nil
}

func (l *localLedger) Exists(ctx context.Context, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &LedgerError{Op: "exists", Err: err}
	}
	return l.store.Exists(l.owner, l.HashBytes(data)), nil
}

func (l *localLedger) Count(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &LedgerError{Op: "count", Err: err}
	}
	count := l.store.Count(l.owner)
	if count < 0 {
		return 0, &LedgerError{Op: "count", Err: fmt.Errorf("negative count %d", count)}
	}
	return uint64(count), nil
}

func (l *localLedger) Stats(ctx context.Context) (*LedgerStats, error) {
	total, err := l.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerStats{
		TotalDesigns: total,
		Balance:      0,
		Network:      "local",
		Account:      l.owner,
	}, nil
}

func (l *localLedger) InitializeRegistry(ctx context.Context) error {
	l.store.Initialize(l.owner)
	return nil
}
