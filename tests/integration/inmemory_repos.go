package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"arena-ledger/internal/core/domain"
	"arena-ledger/internal/core/ports"
	"arena-ledger/pkg/pagetoken"

	"github.com/google/uuid"
)

// memBackend is a single in-memory storage backend shared by all repo views.
// One mutex covers every map so ApplyAtomic gets the same all-or-nothing
// visibility the real store gets from a database transaction.
type memBackend struct {
	mu            sync.Mutex
	wallets       map[uuid.UUID]*domain.Wallet
	walletsByUser map[uuid.UUID]uuid.UUID
	transactions  map[uuid.UUID]*domain.Transaction
	idempotency   map[string]*domain.IdempotencyRecord
	transfers     map[uuid.UUID]*domain.TransferRecord
}

func newMemBackend() *memBackend {
	return &memBackend{
		wallets:       make(map[uuid.UUID]*domain.Wallet),
		walletsByUser: make(map[uuid.UUID]uuid.UUID),
		transactions:  make(map[uuid.UUID]*domain.Transaction),
		idempotency:   make(map[string]*domain.IdempotencyRecord),
		transfers:     make(map[uuid.UUID]*domain.TransferRecord),
	}
}

func idemKey(kind domain.OperationKind, key string) string {
	return string(kind) + "\x00" + key
}

// --- Wallet Repository ---

type memWalletRepo struct {
	b *memBackend
}

func (r *memWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, exists := r.b.walletsByUser[w.UserID]; exists {
		return domain.ErrWalletExists
	}
	cp := *w
	r.b.wallets[w.ID] = &cp
	r.b.walletsByUser[w.UserID] = w.ID
	return nil
}

func (r *memWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	id, ok := r.b.walletsByUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *r.b.wallets[id]
	return &cp, nil
}

func (r *memWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	w, ok := r.b.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// --- Ledger Store ---

// memLedgerStore mirrors the guarded-update semantics of the real store:
// version check, non-negative balance floor, duplicate detection, and the
// idempotency registration all happen under one lock.
type memLedgerStore struct {
	b *memBackend
}

func (s *memLedgerStore) ApplyAtomic(ctx context.Context, p ports.ApplyParams) (int64, error) {
	if p.Transaction == nil {
		return 0, fmt.Errorf("apply atomic: transaction entry is required")
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	w, ok := s.b.wallets[p.WalletID]
	if !ok {
		return 0, fmt.Errorf("wallet not found: %s", p.WalletID)
	}
	if w.Version != p.ExpectedVersion {
		return 0, domain.ErrVersionConflict
	}
	if w.Balance+p.Delta < 0 {
		return 0, domain.ErrInsufficientFunds
	}
	if _, exists := s.b.transactions[p.Transaction.ID]; exists {
		return 0, domain.ErrDuplicateTransaction
	}
	if p.Idempotency != nil {
		k := idemKey(p.Idempotency.OperationKind, p.Idempotency.Key)
		if _, exists := s.b.idempotency[k]; exists {
			return 0, domain.ErrDuplicateIdempotencyKey
		}
	}

	w.Balance += p.Delta
	w.Version++
	if p.Delta >= 0 {
		w.TotalCredits += p.Delta
	} else {
		w.TotalDebits -= p.Delta
	}
	txDate := p.Transaction.TransactionDate
	w.LastTransactionAt = &txDate
	w.UpdatedAt = txDate

	t := p.Transaction
	t.BalanceAfter = w.Balance
	cp := *t
	s.b.transactions[t.ID] = &cp

	if p.Idempotency != nil {
		rec := p.Idempotency
		rec.TransactionID = t.ID
		if rec.ResponseJSON == nil {
			data, err := json.Marshal(t)
			if err != nil {
				return 0, fmt.Errorf("marshal idempotency response: %w", err)
			}
			rec.ResponseJSON = data
		}
		recCp := *rec
		s.b.idempotency[idemKey(rec.OperationKind, rec.Key)] = &recCp
	}

	return w.Balance, nil
}

// --- Transaction Repository ---

type memTransactionRepo struct {
	b *memBackend
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	t, ok := r.b.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, *pagetoken.Cursor, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	var result []domain.Transaction
	for _, t := range r.b.transactions {
		if t.WalletID != params.WalletID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Category != nil && t.Category != *params.Category {
			continue
		}
		if params.From != nil && t.TransactionDate.Before(*params.From) {
			continue
		}
		if params.To != nil && t.TransactionDate.After(*params.To) {
			continue
		}
		result = append(result, *t)
	}

	// Newest first, id as tiebreaker, matching the storage ordering.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].TransactionDate.After(result[j].TransactionDate)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) > 0
	})

	if params.Cursor != nil {
		cut := 0
		for i, t := range result {
			if t.TransactionDate.Before(params.Cursor.Date) ||
				(t.TransactionDate.Equal(params.Cursor.Date) && bytes.Compare(t.ID[:], params.Cursor.ID[:]) < 0) {
				cut = i
				break
			}
			cut = i + 1
		}
		result = result[cut:]
	}

	if len(result) <= params.PageSize {
		return result, nil, nil
	}
	page := result[:params.PageSize]
	last := page[len(page)-1]
	return page, &pagetoken.Cursor{Date: last.TransactionDate, ID: last.ID}, nil
}

// --- Idempotency Repository ---

type memIdempotencyRepo struct {
	b *memBackend
}

func (r *memIdempotencyRepo) Resolve(ctx context.Context, kind domain.OperationKind, key string) (*domain.IdempotencyRecord, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	rec, ok := r.b.idempotency[idemKey(kind, key)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memIdempotencyRepo) Register(ctx context.Context, record *domain.IdempotencyRecord) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	k := idemKey(record.OperationKind, record.Key)
	if _, exists := r.b.idempotency[k]; exists {
		return domain.ErrDuplicateIdempotencyKey
	}
	cp := *record
	r.b.idempotency[k] = &cp
	return nil
}

// --- Transfer Repository ---

type memTransferRepo struct {
	b *memBackend
}

func (r *memTransferRepo) Create(ctx context.Context, record *domain.TransferRecord) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	cp := *record
	r.b.transfers[record.ID] = &cp
	return nil
}

func (r *memTransferRepo) Update(ctx context.Context, record *domain.TransferRecord) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if _, ok := r.b.transfers[record.ID]; !ok {
		return fmt.Errorf("transfer record not found: %s", record.ID)
	}
	cp := *record
	r.b.transfers[record.ID] = &cp
	return nil
}

func (r *memTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransferRecord, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	rec, ok := r.b.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}
