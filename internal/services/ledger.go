package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/aptos-labs/aptos-go-sdk/crypto"

	"github.com/bhavya-jpg/proofora-backend/internal/logger"
)

const registryModuleName = "design_registry"

// LedgerError wraps any ledger-side failure. Submission and confirmation
// failures are not categorized further; the caller sees the underlying
// message.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

type LedgerReceipt struct {
	DesignHash      string `json:"designHash"`
	TransactionHash string `json:"transactionHash"`
	Timestamp       int64  `json:"timestamp"`
	ExplorerURL     string `json:"explorerUrl"`
}

type LedgerStats struct {
	TotalDesigns uint64  `json:"totalDesigns"`
	Balance      float64 `json:"balance"`
	Network      string  `json:"network"`
	Account      string  `json:"account"`
}

type LedgerService interface {
	// HashBytes is the deterministic content hash used both as the on-chain
	// key and for duplicate detection.
	HashBytes(data []byte) string
	// Register submits the registry entry function and blocks until the
	// ledger confirms inclusion. No retry, no idempotency key: resubmitting
	// the same bytes appends a second entry.
	Register(ctx context.Context, data []byte, title string) (*LedgerReceipt, error)
	// Exists runs the read-only existence view scoped to the configured
	// account. Byte-identical re-uploads under the same account are the only
	// thing this detects.
	Exists(ctx context.Context, data []byte) (bool, error)
	Count(ctx context.Context) (uint64, error)
	Stats(ctx context.Context) (*LedgerStats, error)
	// InitializeRegistry is idempotent: an "already exists" abort on chain
	// counts as success.
	InitializeRegistry(ctx context.Context) error
}

type LedgerConfig struct {
	PrivateKey    string
	ModuleAddress string
	Network       string
}

// NewLedgerService selects the backend from configuration: a signing key
// means the real Aptos chain, no key falls back to the in-process registry
// so the API stays runnable without a funded account.
func NewLedgerService(log *logger.Logger, cfg LedgerConfig) (LedgerService, error) {
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		log.Warn("APTOS_PRIVATE_KEY not set, using in-process registry ledger")
		return NewLocalLedger(log), nil
	}
	return newAptosLedger(log, cfg)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type aptosLedger struct {
	log        *logger.Logger
	client     *aptos.Client
	account    *aptos.Account
	moduleAddr aptos.AccountAddress
	network    string
}

func newAptosLedger(log *logger.Logger, cfg LedgerConfig) (*aptosLedger, error) {
	network := strings.ToLower(strings.TrimSpace(cfg.Network))
	var netCfg aptos.NetworkConfig
	switch network {
	case "mainnet":
		netCfg = aptos.MainnetConfig
	case "testnet":
		netCfg = aptos.TestnetConfig
	case "", "devnet":
		network = "devnet"
		netCfg = aptos.DevnetConfig
	default:
		return nil, fmt.Errorf("unknown aptos network %q", cfg.Network)
	}

	client, err := aptos.NewClient(netCfg)
	if err != nil {
		return nil, fmt.Errorf("aptos client: %w", err)
	}

	priv := &crypto.Ed25519PrivateKey{}
	if err := priv.FromHex(strings.TrimSpace(cfg.PrivateKey)); err != nil {
		return nil, fmt.Errorf("parse APTOS_PRIVATE_KEY: %w", err)
	}
	account, err := aptos.NewAccountFromSigner(priv)
	if err != nil {
		return nil, fmt.Errorf("derive account: %w", err)
	}

	moduleAddr := aptos.AccountAddress{}
	if err := moduleAddr.ParseStringRelaxed(strings.TrimSpace(cfg.ModuleAddress)); err != nil {
		return nil, fmt.Errorf("parse APTOS_MODULE_ADDRESS: %w", err)
	}

	log.Info("Aptos ledger client ready",
		"network", network,
		"account", account.Address.String(),
		"module_address", moduleAddr.String(),
	)
	return &aptosLedger{
		log:        log.With("service", "AptosLedger"),
		client:     client,
		account:    account,
		moduleAddr: moduleAddr,
		network:    network,
	}, nil
}

func (l *aptosLedger) HashBytes(data []byte) string {
	return hashHex(data)
}

func (l *aptosLedger) entry(function string, args [][]byte) aptos.TransactionPayload {
	return aptos.TransactionPayload{
		Payload: &aptos.EntryFunction{
			Module:   aptos.ModuleId{Address: l.moduleAddr, Name: registryModuleName},
			Function: function,
			ArgTypes: []aptos.TypeTag{},
			Args:     args,
		},
	}
}

// submit signs, submits and blocks until the chain confirms inclusion.
func (l *aptosLedger) submit(payload aptos.TransactionPayload) (txHash string, timestampSec int64, err error) {
	pending, err := l.client.BuildSignAndSubmitTransaction(l.account, payload)
	if err != nil {
		return "", 0, err
	}
	committed, err := l.client.WaitForTransaction(pending.Hash)
	if err != nil {
		return "", 0, err
	}
	if !committed.Success {
		return "", 0, fmt.Errorf("transaction failed on chain: %s", committed.VmStatus)
	}
	return string(pending.Hash), int64(committed.Timestamp / 1_000_000), nil
}

func (l *aptosLedger) Register(ctx context.Context, data []byte, title string) (*LedgerReceipt, error) {
	designHash := l.HashBytes(data)
	hashArg, err := bcs.SerializeBytes([]byte(designHash))
	if err != nil {
		return nil, &LedgerError{Op: "register", Err: err}
	}
	titleArg, err := bcs.SerializeBytes([]byte(title))
	if err != nil {
		return nil, &LedgerError{Op: "register", Err: err}
	}

	txHash, ts, err := l.submit(l.entry("register_design", [][]byte{hashArg, titleArg}))
	if err != nil {
		return nil, &LedgerError{Op: "register", Err: err}
	}
	l.log.Info("Design registered on chain", "design_hash", designHash, "tx_hash", txHash)
	return &LedgerReceipt{
		DesignHash:      designHash,
		TransactionHash: txHash,
		Timestamp:       ts,
		ExplorerURL:     fmt.Sprintf("https://explorer.aptoslabs.com/txn/%s?network=%s", txHash, l.network),
	}, nil
}

func (l *aptosLedger) view(function string, args [][]byte) ([]any, error) {
	return l.client.View(&aptos.ViewPayload{
		Module:   aptos.ModuleId{Address: l.moduleAddr, Name: registryModuleName},
		Function: function,
		ArgTypes: []aptos.TypeTag{},
		Args:     args,
	})
}

func (l *aptosLedger) ownerArg() ([]byte, error) {
	return bcs.Serialize(&l.account.Address)
}

func (l *aptosLedger) Exists(ctx context.Context, data []byte) (bool, error) {
	ownerArg, err := l.ownerArg()
	if err != nil {
		return false, &LedgerError{Op: "exists", Err: err}
	}
	hashArg, err := bcs.SerializeBytes([]byte(l.HashBytes(data)))
	if err != nil {
		return false, &LedgerError{Op: "exists", Err: err}
	}
	vals, err := l.view("design_exists", [][]byte{ownerArg, hashArg})
	if err != nil {
		return false, &LedgerError{Op: "exists", Err: err}
	}
	if len(vals) == 0 {
		return false, &LedgerError{Op: "exists", Err: fmt.Errorf("empty view result")}
	}
	found, ok := vals[0].(bool)
	if !ok {
		return false, &LedgerError{Op: "exists", Err: fmt.Errorf("unexpected view result %T", vals[0])}
	}
	return found, nil
}

func (l *aptosLedger) Count(ctx context.Context) (uint64, error) {
	ownerArg, err := l.ownerArg()
	if err != nil {
		return 0, &LedgerError{Op: "count", Err: err}
	}
	vals, err := l.view("get_design_count", [][]byte{ownerArg})
	if err != nil {
		return 0, &LedgerError{Op: "count", Err: err}
	}
	if len(vals) == 0 {
		return 0, &LedgerError{Op: "count", Err: fmt.Errorf("empty view result")}
	}
	// u64 view results come back as decimal strings
	raw, ok := vals[0].(string)
	if !ok {
		return 0, &LedgerError{Op: "count", Err: fmt.Errorf("unexpected view result %T", vals[0])}
	}
	count, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &LedgerError{Op: "count", Err: err}
	}
	return count, nil
}

func (l *aptosLedger) Stats(ctx context.Context) (*LedgerStats, error) {
	total, err := l.Count(ctx)
	if err != nil {
		return nil, err
	}
	octas, err := l.client.AccountAPTBalance(l.account.Address)
	if err != nil {
		return nil, &LedgerError{Op: "stats", Err: err}
	}
	return &LedgerStats{
		TotalDesigns: total,
		Balance:      float64(octas) / 1e8,
		Network:      l.network,
		Account:      l.account.Address.String(),
	}, nil
}

func (l *aptosLedger) InitializeRegistry(ctx context.Context) error {
	_, _, err := l.submit(l.entry("initialize_registry", [][]byte{}))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already") ||
			strings.Contains(err.Error(), "RESOURCE_ALREADY_EXISTS") {
			l.log.Debug("Registry already initialized for account")
			return nil
		}
		return &LedgerError{Op: "initialize", Err: err}
	}
	l.log.Info("Registry initialized on chain", "account", l.account.Address.String())
	return nil
}
