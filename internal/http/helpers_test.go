package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gitlab.com/yelinaung/expenditure-manager/internal/auth"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/live"
)

const (
	testUserID = "user-1"
	testToken  = "good-token"
)

var refNow = time.Date(2026, time.June, 17, 15, 30, 0, 0, time.UTC)

type stores struct {
	tx         *ledger.MockTransactionStore
	cards      *ledger.MockCardStore
	categories *ledger.MockCategoryStore
	thresholds *ledger.MockThresholdStore
	profiles   *ledger.MockProfileStore
}

// fakeAuth accepts testToken and records calls.
type fakeAuth struct {
	tokens     map[string]string
	signUpErr  error
	signInErr  error
	changeErr  error
	gotSignUp  auth.SignUpParams
	gotChange  []string
	signedOut  []string
	signInUser string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{tokens: map[string]string{testToken: testUserID}}
}

func (f *fakeAuth) Verify(token string) (string, error) {
	id, ok := f.tokens[token]
	if !ok {
		return "", auth.ErrInvalidToken
	}
	return id, nil
}

func (f *fakeAuth) SignUp(_ context.Context, p auth.SignUpParams) (*auth.Session, error) {
	f.gotSignUp = p
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &auth.Session{UserID: "new-user", Email: p.Email, Token: "new-token", ExpiresAt: refNow.Add(time.Hour)}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &auth.Session{UserID: testUserID, Email: email, Token: testToken, ExpiresAt: refNow.Add(time.Hour)}, nil
}

func (f *fakeAuth) ChangePassword(_ context.Context, userID, current, newPassword, confirm string) error {
	f.gotChange = []string{userID, current, newPassword, confirm}
	return f.changeErr
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	if _, ok := f.tokens[token]; !ok {
		return auth.ErrInvalidToken
	}
	delete(f.tokens, token)
	f.signedOut = append(f.signedOut, token)
	return nil
}

type testAPI struct {
	handler http.Handler
	auth    *fakeAuth
	stores  stores
	board   *live.Board
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctrl := gomock.NewController(t)

	s := stores{
		tx:         ledger.NewMockTransactionStore(ctrl),
		cards:      ledger.NewMockCardStore(ctrl),
		categories: ledger.NewMockCategoryStore(ctrl),
		thresholds: ledger.NewMockThresholdStore(ctrl),
		profiles:   ledger.NewMockProfileStore(ctrl),
	}
	svc := ledger.NewService(ledger.Stores{
		Transactions: s.tx,
		Cards:        s.cards,
		Categories:   s.categories,
		Thresholds:   s.thresholds,
		Profiles:     s.profiles,
	}, ledger.WithClock(func() time.Time { return refNow }))

	board := live.NewBoard(live.NewFeed(s.tx), time.UTC)
	t.Cleanup(board.Close)

	fa := newFakeAuth()
	return &testAPI{
		handler: New(NewAuthHandler(fa), NewLedgerHandler(svc, board), []string{"https://app.example.com"}),
		auth:    fa,
		stores:  s,
		board:   board,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[errorResponse](t, rec).Error
}
