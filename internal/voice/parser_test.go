package voice

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expenditure-manager/internal/models"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cards := []string{"DBS Visa", "OCBC"}
	categories := []string{"Food", "Transport", "Salary"}

	t.Run("expense with cash fallback and category", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("spent 42.50 on food at cash", nil, []string{"food"})

		require.NotNil(t, cmd.Type)
		require.Equal(t, models.TypeExpense, *cmd.Type)
		require.NotNil(t, cmd.Amount)
		require.Equal(t, "42.5", cmd.Amount.String())
		require.NotNil(t, cmd.Card)
		require.Equal(t, "Cash", *cmd.Card)
		require.NotNil(t, cmd.Category)
		require.Equal(t, "food", *cmd.Category)

		for _, token := range []string{"spent", "42.50", "food", "cash"} {
			require.NotContains(t, cmd.Description, token)
		}
		require.Equal(t, "on at", cmd.Description)
	})

	t.Run("income keywords win over expense keywords", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("Deposit 100 dollars paid by boss", cards, categories)

		require.Equal(t, models.TypeIncome, *cmd.Type)
		require.Equal(t, "100", cmd.Amount.String())
		require.Contains(t, cmd.Description, "paid")
		require.NotContains(t, cmd.Description, "dollars")
	})

	t.Run("known card keeps original casing and beats cash", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("bought lunch 12 with dbs visa not cash", cards, categories)

		require.Equal(t, "DBS Visa", *cmd.Card)
		require.Contains(t, cmd.Description, "cash")
		require.Nil(t, cmd.Category)
	})

	t.Run("first card in given order wins", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("paid 5 with ocbc or dbs visa", []string{"OCBC", "DBS Visa"}, nil)
		require.Equal(t, "OCBC", *cmd.Card)
	})

	t.Run("unparsed fields stay nil", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("hello there", cards, categories)

		require.Nil(t, cmd.Type)
		require.Nil(t, cmd.Amount)
		require.Nil(t, cmd.Card)
		require.Nil(t, cmd.Category)
		require.Equal(t, "hello there", cmd.Description)
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("", cards, categories)
		require.Equal(t, Command{}, cmd)
	})

	t.Run("removes every occurrence of the matched amount", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("spent 5 on 5 apples", nil, nil)
		require.Equal(t, "5", cmd.Amount.String())
		require.Equal(t, "on apples", cmd.Description)
	})

	t.Run("currency words removed anywhere", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("usd paid 3 euro coffee dollars", nil, nil)
		require.Equal(t, "coffee", cmd.Description)
	})

	t.Run("category named like an income keyword is consumed as type", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("50 salary", nil, []string{"Salary"})

		require.Equal(t, models.TypeIncome, *cmd.Type)
		require.Nil(t, cmd.Category)
	})

	t.Run("empty known names never match", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("paid 5 for bus", []string{""}, []string{"", "Transport"})
		require.Nil(t, cmd.Card)
		require.Nil(t, cmd.Category)
		require.Equal(t, "for bus", cmd.Description)
	})

	t.Run("whitespace is collapsed", func(t *testing.T) {
		t.Parallel()
		cmd := Parse("  spent\t 7   on   the\nbus  ", nil, nil)
		require.Equal(t, "on the bus", cmd.Description)
	})
}

func TestDraftApply(t *testing.T) {
	t.Parallel()

	d := NewDraft()
	require.Equal(t, models.TypeExpense, d.Type)
	require.ElementsMatch(t, []string{"amount", "category", "description", "card"}, d.Missing())

	d.Apply(Parse("spent 12 on lunch food", nil, []string{"Food"}), "spent 12 on lunch food")
	require.Equal(t, "12", d.Amount.String())
	require.Equal(t, "Food", d.Category)
	require.Equal(t, "on lunch", d.Description)
	require.Equal(t, []string{"card"}, d.Missing())

	// A follow-up command that only names a card keeps everything else.
	d.Apply(Parse("cash", nil, nil), "cash")
	require.Equal(t, "Cash", d.CardOrWallet)
	require.Equal(t, "12", d.Amount.String())
	require.Equal(t, "on lunch", d.Description)
	require.Equal(t, "cash", d.HeardText)
	require.Empty(t, d.Missing())
}
