package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTxType(t *testing.T) {
	tests := []struct {
		input   string
		want    TxType
		wantErr bool
	}{
		{input: "income", want: TxIncome},
		{input: "expense", want: TxExpense},
		{input: "saving", want: TxSaving},
		{input: "invest", want: TxInvest},
		{input: "transfer", wantErr: true},
		{input: "", wantErr: true},
		{input: "EXPENSE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTxType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTxType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTxType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWallet_TotalFor(t *testing.T) {
	w := Wallet{
		Income:  decimal.NewFromInt(100),
		Expense: decimal.NewFromInt(40),
		Saving:  decimal.NewFromInt(25),
		Invest:  decimal.NewFromInt(10),
	}

	tests := []struct {
		txType TxType
		want   int64
	}{
		{TxIncome, 100},
		{TxExpense, 40},
		{TxSaving, 25},
		{TxInvest, 10},
	}
	for _, tt := range tests {
		if got := w.TotalFor(tt.txType); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("TotalFor(%s) = %s, want %d", tt.txType, got, tt.want)
		}
	}

	if got := w.Balance(); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Balance() = %s, want 60", got)
	}
}

func TestBudget_Contains(t *testing.T) {
	b := Budget{
		Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"first day", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"mid window", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), true},
		{"last day", time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC), true},
		{"day before", time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), false},
		{"day after", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	tests := []string{"0", "0.01", "20", "35.5", "99.99", "12345.67"}
	for _, s := range tests {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad test amount %q: %v", s, err)
		}
		if got := FromCents(Cents(d)); !got.Equal(d) {
			t.Errorf("FromCents(Cents(%s)) = %s", s, got)
		}
	}

	if Cents(decimal.RequireFromString("10.005")) != 1001 {
		t.Errorf("Cents should round half away from zero at the cent boundary")
	}
}
