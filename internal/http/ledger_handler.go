package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
	"gitlab.com/yelinaung/expenditure-manager/internal/live"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
)

// Ledger is the part of ledger.Service the API serves.
type Ledger interface {
	Now() time.Time
	AddTransaction(ctx context.Context, userID string, in ledger.NewTransaction) (*models.Transaction, error)
	Transactions(ctx context.Context, userID, query string) ([]models.Transaction, error)
	Summary(ctx context.Context, userID string, period models.Period) (analytics.Summary, error)
	Chart(ctx context.Context, userID string, period models.Period) ([]analytics.Bucket, error)
	CategoryPie(ctx context.Context, userID string, period models.Period) ([]byte, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	BalanceIn(ctx context.Context, userID, currency string) (ledger.ConvertedBalance, error)
	ExportCSV(ctx context.Context, userID string) ([]byte, error)
	AddCard(ctx context.Context, userID string, c models.Card) (*models.Card, error)
	SetCard(ctx context.Context, userID string, c models.Card) (*models.Card, error)
	Cards(ctx context.Context, userID string) ([]models.Card, error)
	AddCategory(ctx context.Context, userID string, c models.Category) (*models.Category, error)
	SetCategory(ctx context.Context, userID string, c models.Category) (*models.Category, error)
	Categories(ctx context.Context, userID, query string) ([]models.Category, error)
	Thresholds(ctx context.Context, userID string) (*models.Threshold, error)
	SetThresholds(ctx context.Context, userID string, th models.Threshold) error
	CheckThresholds(ctx context.Context, userID string) ([]analytics.ThresholdStatus, analytics.SpendTotals, error)
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, u models.ProfileUpdate) error
	ParseCommand(ctx context.Context, userID, text string) (voice.Command, error)
}

var _ Ledger = (*ledger.Service)(nil)

// Dashboard keeps live per-user views.
type Dashboard interface {
	Watch(ctx context.Context, userID string) error
	View(userID string) (live.View, bool)
}

var _ Dashboard = (*live.Board)(nil)

type LedgerHandler struct {
	svc  Ledger
	dash Dashboard
}

// NewLedgerHandler creates the handler for the authenticated routes. dash
// may be nil, which disables /dashboard.
func NewLedgerHandler(svc Ledger, dash Dashboard) *LedgerHandler {
	return &LedgerHandler{svc: svc, dash: dash}
}

func (h *LedgerHandler) Routes(r chi.Router) {
	r.Get("/profile", h.getProfile)
	r.Patch("/profile", h.updateProfile)

	r.Get("/transactions", h.listTransactions)
	r.Post("/transactions", h.createTransaction)

	r.Get("/cards", h.listCards)
	r.Post("/cards", h.createCard)
	r.Put("/cards/{id}", h.setCard)

	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Put("/categories/{id}", h.setCategory)

	r.Get("/thresholds", h.getThresholds)
	r.Put("/thresholds", h.setThresholds)
	r.Get("/thresholds/check", h.checkThresholds)

	r.Get("/analytics/summary", h.summary)
	r.Get("/analytics/chart", h.chart)
	r.Get("/analytics/chart.png", h.chartPNG)
	r.Get("/balance", h.balance)
	r.Get("/export.csv", h.exportCSV)

	r.Post("/voice/parse", h.parseVoice)
	r.Get("/notifications", h.notifications)
	r.Get("/dashboard", h.dashboard)
}

func (h *LedgerHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *LedgerHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	userID := UserID(r.Context())
	if err := h.svc.UpdateProfile(r.Context(), userID, req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *LedgerHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.svc.Transactions(r.Context(), UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

type createTransactionRequest struct {
	Amount       *decimal.Decimal       `json:"amount"`
	Type         models.TransactionType `json:"type"`
	Category     string                 `json:"category"`
	Description  string                 `json:"description"`
	CardOrWallet string                 `json:"cardOrWallet"`
	Currency     string                 `json:"currency"`
	Date         *time.Time             `json:"date,omitempty"`
}

func (h *LedgerHandler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	in := ledger.NewTransaction{
		Amount:       req.Amount,
		Type:         req.Type,
		Category:     req.Category,
		Description:  req.Description,
		CardOrWallet: req.CardOrWallet,
		Currency:     req.Currency,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	t, err := h.svc.AddTransaction(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// cardResponse never carries the full card number.
type cardResponse struct {
	ID                  string           `json:"id"`
	BankName            string           `json:"bankName"`
	CardNumber          string           `json:"cardNumber"`
	HolderName          string           `json:"holderName"`
	Expiry              string           `json:"expiry"`
	MonthlyBudget       *decimal.Decimal `json:"monthlyBudget,omitempty"`
	CurrentMonthLeft    *decimal.Decimal `json:"currentMonthLeft,omitempty"`
	PreviousMonthBudget *decimal.Decimal `json:"previousMonthBudget,omitempty"`
	PreviousMonthLeft   *decimal.Decimal `json:"previousMonthLeft,omitempty"`
}

func toCardResponse(c *models.Card) cardResponse {
	return cardResponse{
		ID:                  c.ID,
		BankName:            c.BankName,
		CardNumber:          logger.MaskCardNumber(c.CardNumber),
		HolderName:          c.HolderName,
		Expiry:              c.Expiry,
		MonthlyBudget:       c.MonthlyBudget,
		CurrentMonthLeft:    c.CurrentMonthLeft,
		PreviousMonthBudget: c.PreviousMonthBudget,
		PreviousMonthLeft:   c.PreviousMonthLeft,
	}
}

type cardRequest struct {
	BankName            string           `json:"bankName"`
	CardNumber          string           `json:"cardNumber"`
	HolderName          string           `json:"holderName"`
	Expiry              string           `json:"expiry"`
	MonthlyBudget       *decimal.Decimal `json:"monthlyBudget,omitempty"`
	CurrentMonthLeft    *decimal.Decimal `json:"currentMonthLeft,omitempty"`
	PreviousMonthBudget *decimal.Decimal `json:"previousMonthBudget,omitempty"`
	PreviousMonthLeft   *decimal.Decimal `json:"previousMonthLeft,omitempty"`
}

func (req cardRequest) toCard(id string) models.Card {
	return models.Card{
		ID:                  id,
		BankName:            req.BankName,
		CardNumber:          req.CardNumber,
		HolderName:          req.HolderName,
		Expiry:              req.Expiry,
		MonthlyBudget:       req.MonthlyBudget,
		CurrentMonthLeft:    req.CurrentMonthLeft,
		PreviousMonthBudget: req.PreviousMonthBudget,
		PreviousMonthLeft:   req.PreviousMonthLeft,
	}
}

func (h *LedgerHandler) listCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Cards(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]cardResponse, len(cards))
	for i := range cards {
		resp[i] = toCardResponse(&cards[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LedgerHandler) createCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, err := h.svc.AddCard(r.Context(), UserID(r.Context()), req.toCard(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(c))
}

func (h *LedgerHandler) setCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, err := h.svc.SetCard(r.Context(), UserID(r.Context()), req.toCard(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCardResponse(c))
}

func (h *LedgerHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context(), UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name     string `json:"name"`
	ColorHex string `json:"colorHex"`
}

func (h *LedgerHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, err := h.svc.AddCategory(r.Context(), UserID(r.Context()), models.Category{Name: req.Name, ColorHex: req.ColorHex})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *LedgerHandler) setCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	c, err := h.svc.SetCategory(r.Context(), UserID(r.Context()), models.Category{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		ColorHex: req.ColorHex,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *LedgerHandler) getThresholds(w http.ResponseWriter, r *http.Request) {
	th, err := h.svc.Thresholds(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (h *LedgerHandler) setThresholds(w http.ResponseWriter, r *http.Request) {
	var req models.Threshold
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.svc.SetThresholds(r.Context(), UserID(r.Context()), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type thresholdCheckResponse struct {
	Statuses []analytics.ThresholdStatus `json:"statuses"`
	Totals   analytics.SpendTotals       `json:"totals"`
}

func (h *LedgerHandler) checkThresholds(w http.ResponseWriter, r *http.Request) {
	statuses, totals, err := h.svc.CheckThresholds(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdCheckResponse{Statuses: statuses, Totals: totals})
}
