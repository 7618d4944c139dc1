package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expenditure-manager/internal/analytics"
	"gitlab.com/yelinaung/expenditure-manager/internal/logger"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
	"gitlab.com/yelinaung/expenditure-manager/internal/voice"
)

// periodParam reads ?period=, defaulting to monthly.
func periodParam(r *http.Request) (models.Period, error) {
	s := r.URL.Query().Get("period")
	if s == "" {
		return models.PeriodMonthly, nil
	}
	return models.ParsePeriod(s)
}

func (h *LedgerHandler) summary(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	s, err := h.svc.Summary(r.Context(), UserID(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *LedgerHandler) chart(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	buckets, err := h.svc.Chart(r.Context(), UserID(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := analytics.TableJSON(buckets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *LedgerHandler) chartPNG(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	png, err := h.svc.CategoryPie(r.Context(), UserID(r.Context()), period)
	if errors.Is(err, analytics.ErrNothingToChart) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no expenses in this period"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", analytics.ChartFilename(period, h.svc.Now())))
	_, _ = w.Write(png)
}

type balanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Rate     *rateResponse   `json:"rate,omitempty"`
}

type rateResponse struct {
	From  string          `json:"from"`
	To    string          `json:"to"`
	Value decimal.Decimal `json:"value"`
	Date  string          `json:"date"`
}

func (h *LedgerHandler) balance(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	if currency := r.URL.Query().Get("currency"); currency != "" {
		c, err := h.svc.BalanceIn(r.Context(), userID, currency)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{
			Balance:  c.Balance,
			Currency: c.Currency,
			Rate: &rateResponse{
				From:  c.Rate.From,
				To:    c.Rate.To,
				Value: c.Rate.Value,
				Date:  c.Rate.Date.Format(time.DateOnly),
			},
		})
		return
	}

	b, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: b, Currency: models.DefaultCurrency})
}

func (h *LedgerHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	data, err := h.svc.ExportCSV(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", analytics.ReportFilename(h.svc.Now())))
	_, _ = w.Write(data)

	logger.Log.Info().Str("user", logger.HashUserID(userID)).Int("bytes", len(data)).Msg("History exported")
}

type parseVoiceRequest struct {
	Text string `json:"text"`
}

// parseVoiceResponse is the draft built from one utterance.
type parseVoiceResponse struct {
	Amount       *decimal.Decimal       `json:"amount"`
	Type         models.TransactionType `json:"type"`
	CardOrWallet string                 `json:"cardOrWallet"`
	Category     string                 `json:"category"`
	Description  string                 `json:"description"`
	Missing      []string               `json:"missing"`
}

func (h *LedgerHandler) parseVoice(w http.ResponseWriter, r *http.Request) {
	var req parseVoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	cmd, err := h.svc.ParseCommand(r.Context(), UserID(r.Context()), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d := voice.NewDraft()
	d.Apply(cmd, req.Text)
	missing := d.Missing()
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, parseVoiceResponse{
		Amount:       d.Amount,
		Type:         d.Type,
		CardOrWallet: d.CardOrWallet,
		Category:     d.Category,
		Description:  d.Description,
		Missing:      missing,
	})
}

func (h *LedgerHandler) notifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.SampleNotifications())
}

// dashboard returns the live view, subscribing the user on first request.
func (h *LedgerHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	if h.dash == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "dashboard disabled"})
		return
	}
	userID := UserID(r.Context())

	if v, ok := h.dash.View(userID); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	if err := h.dash.Watch(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	v, ok := h.dash.View(userID)
	if !ok {
		writeError(w, r, errors.New("dashboard view missing after load"))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
