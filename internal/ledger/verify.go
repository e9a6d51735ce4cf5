package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// Mismatch reports one aggregate counter that disagrees with the sum
// recomputed from the underlying transactions.
type Mismatch struct {
	Kind     string // "category", "wallet" or "budget"
	ID       string
	Name     string
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s (%s): stored %s, computed %s",
		m.Kind, m.Name, m.ID, m.Stored, m.Computed)
}

// VerifyReport summarizes an invariant check across all three aggregate views.
type VerifyReport struct {
	Mismatches        []Mismatch
	CategoriesChecked int
	WalletsChecked    int
	BudgetsChecked    int
}

// Clean reports whether every aggregate matched its recomputed value.
func (r *VerifyReport) Clean() bool {
	return len(r.Mismatches) == 0
}

// Verify recomputes the three invariant families from raw transactions and
// reports every counter that drifted. The three views read disjoint state,
// so they are checked concurrently.
func (l *Ledger) Verify(ctx context.Context, userID string) (*VerifyReport, error) {
	txns, err := l.store.ListTransactions(ctx, userID, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{}
	var catMis, walMis, budMis []Mismatch

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		categories, err := l.store.ListCategories(ctx, userID)
		if err != nil {
			return err
		}
		report.CategoriesChecked = len(categories)

		sums := make(map[string]decimal.Decimal)
		for i := range txns {
			sums[txns[i].CategoryID] = sums[txns[i].CategoryID].Add(txns[i].Amount)
		}
		for i := range categories {
			c := &categories[i]
			if computed := sums[c.ID]; !c.Amount.Equal(computed) {
				catMis = append(catMis, Mismatch{
					Kind: "category", ID: c.ID, Name: c.Name,
					Stored: c.Amount, Computed: computed,
				})
			}
		}
		return nil
	})

	g.Go(func() error {
		wallets, err := l.store.ListWallets(ctx, userID)
		if err != nil {
			return err
		}
		report.WalletsChecked = len(wallets)

		type key struct {
			walletID string
			txType   model.TxType
		}
		sums := make(map[key]decimal.Decimal)
		for i := range txns {
			k := key{txns[i].WalletID, txns[i].Type}
			sums[k] = sums[k].Add(txns[i].Amount)
		}
		for i := range wallets {
			w := &wallets[i]
			for _, t := range []model.TxType{model.TxIncome, model.TxExpense, model.TxSaving, model.TxInvest} {
				if computed := sums[key{w.ID, t}]; !w.TotalFor(t).Equal(computed) {
					walMis = append(walMis, Mismatch{
						Kind: "wallet", ID: w.ID,
						Name:   fmt.Sprintf("%s/%s", w.Name, t),
						Stored: w.TotalFor(t), Computed: computed,
					})
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		budgets, err := l.store.ListBudgets(ctx, userID)
		if err != nil {
			return err
		}
		report.BudgetsChecked = len(budgets)

		for i := range budgets {
			b := &budgets[i]
			computed := decimal.Zero
			for j := range txns {
				if txns[j].CategoryID == b.CategoryID && b.Contains(txns[j].Date) {
					computed = computed.Add(txns[j].Amount)
				}
			}
			if !b.Amount.Equal(computed) {
				budMis = append(budMis, Mismatch{
					Kind: "budget", ID: b.ID,
					Name: fmt.Sprintf("%s [%s, %s]", b.CategoryID,
						b.Begin.Format("2006-01-02"), b.End.Format("2006-01-02")),
					Stored: b.Amount, Computed: computed,
				})
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Mismatches = append(report.Mismatches, catMis...)
	report.Mismatches = append(report.Mismatches, walMis...)
	report.Mismatches = append(report.Mismatches, budMis...)
	return report, nil
}
