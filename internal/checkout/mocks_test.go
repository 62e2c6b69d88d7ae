package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/repository"
)

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	mu sync.Mutex

	CreateErr  error
	LookupErr  error
	Orders     map[string]domain.Order // keyed by payment id
	CreateCall int
	LookupCall int
	// release, when set, blocks CreateOrder until closed
	release chan struct{}
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: make(map[string]domain.Order)}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCall++
	if m.CreateErr != nil {
		return domain.Order{}, m.CreateErr
	}
	if _, ok := m.Orders[order.PaymentID]; ok {
		return domain.Order{}, repository.ErrDuplicatePayment
	}
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	m.Orders[order.PaymentID] = order
	return order, nil
}

func (m *MockOrderStore) GetOrderByPaymentID(_ context.Context, paymentID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupCall++
	if m.LookupErr != nil {
		return domain.Order{}, m.LookupErr
	}
	o, ok := m.Orders[paymentID]
	if !ok {
		return domain.Order{}, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *MockOrderStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCall
}

// MockIdentity implements Identity for testing
type MockIdentity struct {
	User *domain.User
}

func (m MockIdentity) RequireUser() (domain.User, error) {
	if m.User == nil {
		return domain.User{}, ErrUnauthenticated
	}
	return *m.User, nil
}
