// Package catalog stores products, categories and users as flat records.
// Records are passed through; no relation between them is enforced.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/shop-orders/internal/store"
)

var ErrNotFound = errors.New("catalog: not found")

type Service struct {
	products   *store.Collection[Product]
	categories *store.Collection[Category]
	users      *store.Collection[User]

	// one lock for all three collections; catalog writes are rare
	mu sync.Mutex
}

func NewService(b store.Backend) *Service {
	return &Service{
		products:   store.NewCollection[Product](b, store.Products),
		categories: store.NewCollection[Category](b, store.Categories),
		users:      store.NewCollection[User](b, store.Users),
	}
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.products.All(ctx)
}

func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	ps, err := s.products.All(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range ps {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
}

// ProductsIn lists products whose CategoryID is categoryID.
func (s *Service) ProductsIn(ctx context.Context, categoryID string) ([]Product, error) {
	ps, err := s.products.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

// AddProduct appends p, giving it a fresh id when the client sent none.
func (s *Service) AddProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, err := s.products.All(ctx)
	if err != nil {
		return Product{}, err
	}
	return p, s.products.Replace(ctx, append(ps, p))
}

// DeleteProduct removes every product with id. Deleting a missing id is not an error.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, err := s.products.All(ctx)
	if err != nil {
		return err
	}
	return s.products.Replace(ctx, without(ps, func(p Product) bool { return p.ID == id }))
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.categories.All(ctx)
}

func (s *Service) AddCategory(ctx context.Context, c Category) (Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, err := s.categories.All(ctx)
	if err != nil {
		return Category{}, err
	}
	return c, s.categories.Replace(ctx, append(cs, c))
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, err := s.categories.All(ctx)
	if err != nil {
		return err
	}
	return s.categories.Replace(ctx, without(cs, func(c Category) bool { return c.ID == id }))
}

func (s *Service) Users(ctx context.Context) ([]User, error) {
	return s.users.All(ctx)
}

func (s *Service) AddUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt == "" {
		u.CreatedAt = time.Now().Format(time.RFC3339)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	us, err := s.users.All(ctx)
	if err != nil {
		return User{}, err
	}
	return u, s.users.Replace(ctx, append(us, u))
}

// EnsureTelegramUser registers a chat user on first contact and returns the
// stored record. created reports whether a new record was written.
func (s *Service) EnsureTelegramUser(ctx context.Context, telegramID int64, username, fullName string) (u User, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, err := s.users.All(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, existing := range us {
		if existing.TelegramID == telegramID {
			return existing, false, nil
		}
	}
	u = User{
		ID:         strconv.FormatInt(telegramID, 10),
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}
	if err := s.users.Replace(ctx, append(us, u)); err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

// IsAdmin reports whether the Telegram user is flagged is_admin in the users collection.
func (s *Service) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	us, err := s.users.All(ctx)
	if err != nil {
		return false, err
	}
	for _, u := range us {
		if u.TelegramID == telegramID {
			return u.IsAdmin, nil
		}
	}
	return false, nil
}

func without[T any](in []T, drop func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
