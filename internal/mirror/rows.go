package mirror

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/property-registry/internal/domain"
)

// OwnerRow is the remote shape of one owner, keyed by nic_key.
type OwnerRow struct {
	OwnerID    string `bigquery:"owner_id"`
	NIC        string `bigquery:"nic"`
	NICKey     string `bigquery:"nic_key"` // natural key
	Name       string `bigquery:"name"`
	Phone      string `bigquery:"phone"`
	Email      string `bigquery:"email"`
	Role       string `bigquery:"role"`
	Status     string `bigquery:"status"`
	SecretHash string `bigquery:"secret_hash"`

	// ImportDate partitions the table by the day of the last upsert.
	ImportDate civil.Date `bigquery:"import_date"`
	UpdatedTS  time.Time  `bigquery:"updated_ts"`
}

// FileRow is the remote shape of one property file, keyed by file_no.
// The transaction sequence travels inside the row as a JSON string:
// transactions are owned exclusively by their file and are never
// addressed as remote records of their own.
type FileRow struct {
	FileNo string `bigquery:"file_no"` // natural key

	PlotSize  string `bigquery:"plot_size"`
	Block     string `bigquery:"block"`
	Park      string `bigquery:"park"`
	Corner    string `bigquery:"corner"`
	Boulevard string `bigquery:"boulevard"`

	FaceValue       *big.Rat `bigquery:"face_value"`       // NUMERIC
	PaymentReceived *big.Rat `bigquery:"payment_received"` // NUMERIC
	Balance         *big.Rat `bigquery:"balance"`          // NUMERIC
	Surcharge       *big.Rat `bigquery:"surcharge"`        // NUMERIC

	OwnerName   string `bigquery:"owner_name"`
	OwnerNICKey string `bigquery:"owner_nic_key"`

	TransactionsJSON string `bigquery:"transactions_json"`

	ImportDate civil.Date `bigquery:"import_date"`
	UpdatedTS  time.Time  `bigquery:"updated_ts"`
}

func ownerToRow(o domain.Owner, now time.Time) *OwnerRow {
	return &OwnerRow{
		OwnerID:    o.ID,
		NIC:        o.NIC,
		NICKey:     o.NICKey,
		Name:       o.Name,
		Phone:      o.Phone,
		Email:      o.Email,
		Role:       string(o.Role),
		Status:     string(o.Status),
		SecretHash: o.SecretHash,
		ImportDate: civil.DateOf(now),
		UpdatedTS:  now,
	}
}

func rowToOwner(r *OwnerRow) domain.Owner {
	return domain.Owner{
		ID:         r.OwnerID,
		NIC:        r.NIC,
		NICKey:     r.NICKey,
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Role:       domain.Role(r.Role),
		Status:     domain.Status(r.Status),
		SecretHash: r.SecretHash,
	}
}

func fileToRow(f domain.PropertyFile, now time.Time) (*FileRow, error) {
	txJSON, err := json.Marshal(f.Transactions)
	if err != nil {
		return nil, fmt.Errorf("fileToRow: marshaling transactions for %q: %w", f.FileNo, err)
	}

	return &FileRow{
		FileNo:           f.FileNo,
		PlotSize:         f.PlotSize,
		Block:            f.Block,
		Park:             f.Park,
		Corner:           f.Corner,
		Boulevard:        f.Boulevard,
		FaceValue:        f.FaceValue.Rat(),
		PaymentReceived:  f.PaymentReceived.Rat(),
		Balance:          f.Balance.Rat(),
		Surcharge:        f.Surcharge.Rat(),
		OwnerName:        f.OwnerName,
		OwnerNICKey:      f.OwnerNICKey,
		TransactionsJSON: string(txJSON),
		ImportDate:       civil.DateOf(now),
		UpdatedTS:        now,
	}, nil
}

func rowToFile(r *FileRow) (domain.PropertyFile, error) {
	f := domain.PropertyFile{
		FileNo:          r.FileNo,
		PlotSize:        r.PlotSize,
		Block:           r.Block,
		Park:            r.Park,
		Corner:          r.Corner,
		Boulevard:       r.Boulevard,
		FaceValue:       ratToDecimal(r.FaceValue),
		PaymentReceived: ratToDecimal(r.PaymentReceived),
		Balance:         ratToDecimal(r.Balance),
		Surcharge:       ratToDecimal(r.Surcharge),
		OwnerName:       r.OwnerName,
		OwnerNICKey:     r.OwnerNICKey,
	}

	if r.TransactionsJSON != "" {
		if err := json.Unmarshal([]byte(r.TransactionsJSON), &f.Transactions); err != nil {
			return domain.PropertyFile{}, fmt.Errorf("rowToFile: unmarshaling transactions for %q: %w", r.FileNo, err)
		}
	}
	return f, nil
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	// NUMERIC carries at most 9 fractional digits; monetary values in
	// the registry use far fewer. Trailing zeros are trimmed so the
	// round-tripped value prints the same as the ingested one.
	s := strings.TrimRight(r.FloatString(9), "0")
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
