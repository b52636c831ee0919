package mirror

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/property-registry/internal/domain"
)

func TestOwnerRowRoundTrip(t *testing.T) {
	o := domain.Owner{
		ID:         "o1",
		NIC:        "35202-1234567-8",
		NICKey:     "3520212345678",
		Name:       "K. Perera",
		Phone:      "0771234567",
		Email:      "3520212345678@registry.local",
		Role:       domain.RoleAdmin,
		Status:     domain.StatusDisabled,
		SecretHash: "$2a$10$hash",
	}

	got := rowToOwner(ownerToRow(o, time.Now()))
	if got != o {
		t.Errorf("round trip changed owner:\n got %+v\nwant %+v", got, o)
	}
}

func TestFileRowRoundTrip(t *testing.T) {
	f := domain.PropertyFile{
		FileNo:          "F-101",
		PlotSize:        "5 Marla",
		Block:           "B",
		Park:            "Yes",
		Corner:          "No",
		Boulevard:       "Yes",
		FaceValue:       decimal.RequireFromString("2000000"),
		PaymentReceived: decimal.RequireFromString("800"),
		Balance:         decimal.RequireFromString("1700.25"),
		Surcharge:       decimal.RequireFromString("150"),
		OwnerName:       "K. Perera",
		OwnerNICKey:     "3520212345678",
		Transactions: []domain.Transaction{
			{ID: "1709287200000-0", Seq: 0, Paid: decimal.RequireFromString("500"), Outstanding: decimal.RequireFromString("1500"), DueDate: "2024-01-15", Description: "Installment", TypeCode: "IN"},
			{ID: "1709287200000-1", Seq: 1, Paid: decimal.RequireFromString("300"), Outstanding: decimal.RequireFromString("200.25")},
		},
	}

	row, err := fileToRow(f, time.Now())
	if err != nil {
		t.Fatalf("fileToRow failed: %v", err)
	}
	got, err := rowToFile(row)
	if err != nil {
		t.Fatalf("rowToFile failed: %v", err)
	}

	if got.FileNo != f.FileNo || got.PlotSize != f.PlotSize || got.OwnerNICKey != f.OwnerNICKey {
		t.Errorf("descriptors changed: %+v", got)
	}
	if !got.FaceValue.Equal(f.FaceValue) || !got.Balance.Equal(f.Balance) || !got.PaymentReceived.Equal(f.PaymentReceived) {
		t.Errorf("monetary fields changed: %+v", got)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got.Transactions))
	}
	if got.Transactions[0].Seq != 0 || !got.Transactions[1].Outstanding.Equal(f.Transactions[1].Outstanding) {
		t.Errorf("transactions changed: %+v", got.Transactions)
	}
}

func TestRatToDecimal(t *testing.T) {
	tests := []struct {
		name string
		rat  *big.Rat
		want string
	}{
		{"nil is zero", nil, "0"},
		{"integer", big.NewRat(800, 1), "800"},
		{"fraction", big.NewRat(170025, 100), "1700.25"},
		{"zero", big.NewRat(0, 1), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ratToDecimal(tt.rat); got.String() != tt.want {
				t.Errorf("ratToDecimal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDisabledMirrorIsNoOp(t *testing.T) {
	var m *Mirror

	if m.Enabled() {
		t.Error("nil mirror reports enabled")
	}
	if err := m.UpsertOwners(t.Context(), []domain.Owner{{ID: "o1"}}); err != nil {
		t.Errorf("UpsertOwners on nil mirror = %v", err)
	}
	if err := m.UpsertFiles(t.Context(), []domain.PropertyFile{{FileNo: "F1"}}); err != nil {
		t.Errorf("UpsertFiles on nil mirror = %v", err)
	}
	owners, err := m.FetchOwners(t.Context())
	if err != nil || owners != nil {
		t.Errorf("FetchOwners on nil mirror = %v, %v", owners, err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close on nil mirror = %v", err)
	}
}
