package bot

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"gitlab.com/yelinaung/expenditure-manager/internal/config"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/repository"
)

const (
	testChatID   = int64(12345)
	testTGUserID = int64(100)
	testUserID   = "tg:100"
)

var refNow = time.Date(2026, time.June, 17, 15, 30, 0, 0, time.UTC)

// memStores is an in-memory backend for ledger.Service and profile bootstrap.
type memStores struct {
	mu         sync.Mutex
	seq        int
	txns       []models.Transaction
	cards      []models.Card
	categories map[string][]models.Category
	thresholds map[string]models.Threshold
	profiles   map[string]models.UserProfile
	listErr    error
	cardErr    error
}

func newMemStores() *memStores {
	return &memStores{
		categories: make(map[string][]models.Category),
		thresholds: make(map[string]models.Threshold),
		profiles:   make(map[string]models.UserProfile),
	}
}

func (m *memStores) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

type memTransactions struct{ *memStores }

func (m memTransactions) Add(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("txn")
	m.txns = append(m.txns, *t)
	return nil
}

func (m memTransactions) List(_ context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Transaction
	for _, t := range m.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Transaction) int { return b.Date.Compare(a.Date) })
	return out, nil
}

type memCards struct{ *memStores }

func (m memCards) Add(_ context.Context, c *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("card")
	m.cards = append(m.cards, *c)
	return nil
}

func (m memCards) Set(_ context.Context, c *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cards {
		if m.cards[i].ID == c.ID {
			m.cards[i] = *c
			return nil
		}
	}
	m.cards = append(m.cards, *c)
	return nil
}

func (m memCards) List(_ context.Context, userID string) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cardErr != nil {
		return nil, m.cardErr
	}
	var out []models.Card
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memCategories struct{ *memStores }

func (m memCategories) Add(_ context.Context, userID string, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("cat")
	m.categories[userID] = append(m.categories[userID], *c)
	return nil
}

func (m memCategories) Set(_ context.Context, userID string, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories[userID] {
		if m.categories[userID][i].ID == c.ID {
			m.categories[userID][i] = *c
			return nil
		}
	}
	m.categories[userID] = append(m.categories[userID], *c)
	return nil
}

func (m memCategories) List(_ context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.categories[userID]), nil
}

type memThresholds struct{ *memStores }

func (m memThresholds) Get(_ context.Context, userID string) (*models.Threshold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	th := m.thresholds[userID]
	return &th, nil
}

func (m memThresholds) Set(_ context.Context, userID string, th models.Threshold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[userID] = th
	return nil
}

type memProfiles struct{ *memStores }

func (m memProfiles) Get(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m memProfiles) Set(_ context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = *p
	return nil
}

func (m memProfiles) Update(_ context.Context, userID string, u models.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.WhatDoWeCallYou != nil {
		p.WhatDoWeCallYou = *u.WhatDoWeCallYou
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	m.profiles[userID] = p
	return nil
}

// setupTestBot creates a Bot over an in-memory ledger frozen at refNow.
func setupTestBot(t *testing.T, opts ...ledger.Option) (*Bot, *memStores) {
	t.Helper()

	cfg := &config.Config{
		TelegramBotToken:   "test-token",
		WhitelistedUserIDs: []int64{testTGUserID},
	}

	stores := newMemStores()
	svc := ledger.NewService(ledger.Stores{
		Transactions: memTransactions{stores},
		Cards:        memCards{stores},
		Categories:   memCategories{stores},
		Thresholds:   memThresholds{stores},
		Profiles:     memProfiles{stores},
	}, append([]ledger.Option{ledger.WithClock(func() time.Time { return refNow })}, opts...)...)

	return newBot(cfg, svc, memProfiles{stores}, nil), stores
}

// seedSetup gives the test user a Visa card and Food and Salary categories.
func seedSetup(t *testing.T, b *Bot) {
	t.Helper()
	ctx := context.Background()

	_, err := b.ledger.AddCard(ctx, testUserID, models.Card{
		BankName: "Visa", CardNumber: "4111111111111111", HolderName: "Test User", Expiry: "08/28",
	})
	if err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}
	for _, name := range []string{"Food", "Salary"} {
		if _, err := b.ledger.AddCategory(ctx, testUserID, models.Category{Name: name}); err != nil {
			t.Fatalf("failed to seed category: %v", err)
		}
	}
}
