package http

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/repository"
)

// MockOrderStore implements checkout.OrderStore for testing
type MockOrderStore struct {
	mu        sync.Mutex
	CreateErr error
	Orders    map[string]domain.Order
	creates   int
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: make(map[string]domain.Order)}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.CreateErr != nil {
		return domain.Order{}, m.CreateErr
	}
	if _, ok := m.Orders[order.PaymentID]; ok {
		return domain.Order{}, repository.ErrDuplicatePayment
	}
	order.ID = uuid.New()
	m.Orders[order.PaymentID] = order
	return order, nil
}

func (m *MockOrderStore) GetOrderByPaymentID(_ context.Context, paymentID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.Orders[paymentID]
	if !ok {
		return domain.Order{}, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderStore) ListOrdersByUserID(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockOrderStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *MockOrderStore) setCreateErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateErr = err
}

// MockProvider implements identity.Provider for testing
type MockProvider struct {
	mu          sync.Mutex
	User        domain.User
	ExchangeErr error
	RevokeErr   error
	codes       []string
}

func (m *MockProvider) AuthCodeURL(state, verifier string) string {
	q := url.Values{"state": {state}, "code_challenge_method": {"S256"}}
	return "https://auth.test/authorize?" + q.Encode()
}

func (m *MockProvider) Exchange(_ context.Context, code, verifier string) (domain.User, *oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes = append(m.codes, code)
	if m.ExchangeErr != nil {
		return domain.User{}, nil, m.ExchangeErr
	}
	if verifier == "" {
		return domain.User{}, nil, errors.New("missing verifier")
	}
	return m.User, &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (m *MockProvider) Revoke(context.Context, *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RevokeErr
}

func (m *MockProvider) setRevokeErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RevokeErr = err
}

type MockStatus struct {
	label string
}

func (m MockStatus) Label() string {
	return m.label
}

type MockPinger struct {
	err error
}

func (m MockPinger) Ping(context.Context) error {
	return m.err
}
