package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTuitionFeeSettle(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		paid          string
		remaining     string
		payment       string
		wantPaid      string
		wantRemaining string
	}{
		{"partial payment", "720000", "0", "720000", "300000", "300000", "420000"},
		{"second partial payment", "720000", "300000", "420000", "100000", "400000", "320000"},
		{"exact payment settles", "720000", "300000", "420000", "420000", "720000", "0"},
		{"overpayment is discarded", "720000", "300000", "420000", "500000", "720000", "0"},
		{"full payment in one go", "500000", "0", "500000", "500000", "500000", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := &TuitionFee{
				Amount:          decimal.RequireFromString(tt.amount),
				PaidAmount:      decimal.RequireFromString(tt.paid),
				RemainingAmount: decimal.RequireFromString(tt.remaining),
			}
			fee.Settle(decimal.RequireFromString(tt.payment))

			if !fee.PaidAmount.Equal(decimal.RequireFromString(tt.wantPaid)) {
				t.Errorf("PaidAmount = %s, want %s", fee.PaidAmount, tt.wantPaid)
			}
			if !fee.RemainingAmount.Equal(decimal.RequireFromString(tt.wantRemaining)) {
				t.Errorf("RemainingAmount = %s, want %s", fee.RemainingAmount, tt.wantRemaining)
			}
		})
	}
}

func TestTuitionFeeReprice(t *testing.T) {
	tests := []struct {
		name          string
		paid          string
		newAmount     string
		wantRemaining string
	}{
		{"amount grows", "300000", "810000", "510000"},
		{"amount shrinks above paid", "300000", "450000", "150000"},
		{"amount shrinks below paid clamps to zero", "300000", "200000", "0"},
		{"nothing paid yet", "0", "630000", "630000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := &TuitionFee{
				Amount:          decimal.RequireFromString("720000"),
				PaidAmount:      decimal.RequireFromString(tt.paid),
				RemainingAmount: decimal.RequireFromString("720000").Sub(decimal.RequireFromString(tt.paid)),
			}
			fee.Reprice(decimal.RequireFromString(tt.newAmount), 10)

			if !fee.RemainingAmount.Equal(decimal.RequireFromString(tt.wantRemaining)) {
				t.Errorf("RemainingAmount = %s, want %s", fee.RemainingAmount, tt.wantRemaining)
			}
			if fee.DiscountPercent != 10 {
				t.Errorf("DiscountPercent = %d, want 10", fee.DiscountPercent)
			}
			if !fee.PaidAmount.Equal(decimal.RequireFromString(tt.paid)) {
				t.Errorf("PaidAmount changed to %s, want %s", fee.PaidAmount, tt.paid)
			}
		})
	}
}

func TestTuitionFeeStatus(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		remaining string
		want      SettlementStatus
	}{
		{"untouched fee is unpaid", "720000", "720000", SettlementUnpaid},
		{"partially settled", "720000", "420000", SettlementPartiallyPaid},
		{"fully settled", "720000", "0", SettlementPaid},
		{"zero amount counts as paid", "0", "0", SettlementPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := &TuitionFee{
				Amount:          decimal.RequireFromString(tt.amount),
				RemainingAmount: decimal.RequireFromString(tt.remaining),
			}
			if got := fee.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}
