package testutils

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"reconciliation-service/internal/core/spreadsheet"
	"reconciliation-service/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MemoryStore keeps orders, payments and users in memory, honouring the same
// unique constraints as the database.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   uint64
	Orders   []domain.OrderLineItem
	Payments []domain.PaymentRecord
	Users    []domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) ExistingOrderKeys(_ context.Context, userID uint64) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make(map[string]struct{})
	for _, o := range s.Orders {
		if o.UserID == userID {
			keys[o.DedupKey()] = struct{}{}
		}
	}
	return keys, nil
}

func (s *MemoryStore) InsertOrders(_ context.Context, items []domain.OrderLineItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := make(map[string]struct{})
	for _, o := range s.Orders {
		taken[orderUniqueKey(o)] = struct{}{}
	}
	n := 0
	for _, item := range items {
		k := orderUniqueKey(item)
		if _, dup := taken[k]; dup {
			continue
		}
		taken[k] = struct{}{}
		item.ID = s.id()
		s.Orders = append(s.Orders, item)
		n++
	}
	return n, nil
}

func orderUniqueKey(o domain.OrderLineItem) string {
	return strconv.FormatUint(o.UserID, 10) + "|" + o.DedupKey()
}

func (s *MemoryStore) ExistingPaymentNumbers(_ context.Context, userID uint64, numbers []string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		want[n] = struct{}{}
	}
	found := make(map[string]struct{})
	for _, p := range s.Payments {
		if _, ok := want[p.OrderNumber]; ok && p.UserID == userID {
			found[p.OrderNumber] = struct{}{}
		}
	}
	return found, nil
}

func (s *MemoryStore) InsertPaymentsAndPurge(_ context.Context, userID uint64, payments []domain.PaymentRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taken := make(map[string]struct{})
	for _, p := range s.Payments {
		if p.UserID == userID {
			taken[p.OrderNumber] = struct{}{}
		}
	}
	n := 0
	for _, p := range payments {
		if _, dup := taken[p.OrderNumber]; dup {
			continue
		}
		taken[p.OrderNumber] = struct{}{}
		p.ID = s.id()
		s.Payments = append(s.Payments, p)
		n++
	}

	positive := make(map[string]bool)
	for _, p := range s.Payments {
		if p.UserID == userID && p.IsPaid() {
			positive[p.OrderNumber] = true
		}
	}
	kept := s.Payments[:0]
	for _, p := range s.Payments {
		if p.UserID == userID && !p.IsPaid() && positive[p.OrderNumber] {
			continue
		}
		kept = append(kept, p)
	}
	s.Payments = kept
	return n, nil
}

// AddOrders stores items as they are, assigning ids in order.
func (s *MemoryStore) AddOrders(items ...domain.OrderLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		item.ID = s.id()
		if item.LineCount == 0 {
			item.LineCount = 1
		}
		if item.Platform == "" {
			item.Platform = domain.PlatformSHEIN
		}
		s.Orders = append(s.Orders, item)
	}
}

// AddPayments stores payments as they are, bypassing the unique constraint.
func (s *MemoryStore) AddPayments(payments ...domain.PaymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range payments {
		p.ID = s.id()
		s.Payments = append(s.Payments, p)
	}
}

func (s *MemoryStore) ListOrders(_ context.Context, userID uint64) ([]domain.OrderLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OrderLineItem
	for _, o := range s.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListPayments(_ context.Context, userID uint64) ([]domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PaymentRecord
	for _, p := range s.Payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == user.Email || (user.CNPJ != "" && u.CNPJ == user.CNPJ) {
			return domain.ErrAlreadyExists
		}
	}
	user.ID = s.id()
	s.Users = append(s.Users, *user)
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *MemoryStore) GetUser(_ context.Context, id uint64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, userID uint64) (func(), error) {
	args := m.Called(ctx, userID)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ImportCompleted(ctx context.Context, userID uint64, outcomes []domain.FileOutcome) error {
	args := m.Called(ctx, userID, outcomes)
	return args.Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) ListOrders(ctx context.Context, userID uint64) ([]domain.OrderLineItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.OrderLineItem), args.Error(1)
}

func (m *MockOrderStore) ListPayments(ctx context.Context, userID uint64) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Sheet builds a spreadsheet whose row 1 is a title, row 2 the header and
// the following rows the data.
func Sheet(header []string, data ...[]any) spreadsheet.Sheet {
	rows := [][]any{{"Relatório"}}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	rows = append(rows, hdr)
	rows = append(rows, data...)
	return spreadsheet.NewSheet(rows)
}

// SaoPaulo loads America/Sao_Paulo, falling back to a fixed -03:00 zone.
func SaoPaulo() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("America/Sao_Paulo", -3*60*60)
	}
	return loc
}
