package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/property-registry/internal/domain"
)

// Normalize tokenizes one export file and aggregates its rows into a
// Batch. Rows missing either natural key are skipped without side
// effects; only a malformed file as a whole (ErrBadFormat) fails the
// pass.
func Normalize(raw string, now time.Time) (*Batch, error) {
	table, err := parseCSV(raw)
	if err != nil {
		return nil, err
	}

	cols := resolveColumns(table.header)
	batch := newBatch()

	for i, row := range table.rows {
		nicKey := domain.NormalizeNIC(cols.cell(row, fieldNIC))
		fileNo := cols.cell(row, fieldFileNo)
		if nicKey == "" || fileNo == "" {
			continue
		}

		ownerName := cols.cell(row, fieldOwnerName)

		if _, seen := batch.owner(nicKey); !seen {
			batch.putOwner(nicKey, &domain.Owner{
				ID:         uuid.NewString(),
				NIC:        cols.cell(row, fieldNIC),
				NICKey:     nicKey,
				Name:       ownerName,
				Phone:      cols.cell(row, fieldPhone),
				Email:      domain.PlaceholderEmail(nicKey),
				Role:       domain.RoleOwner,
				Status:     domain.StatusActive,
				SecretHash: domain.DefaultSecretHash(),
			})
		}

		file, seen := batch.file(fileNo)
		if !seen {
			file = &domain.PropertyFile{
				FileNo:          fileNo,
				PlotSize:        cols.cell(row, fieldPlot),
				Block:           cols.cell(row, fieldBlock),
				Park:            cols.cell(row, fieldPark),
				Corner:          cols.cell(row, fieldCorner),
				Boulevard:       cols.cell(row, fieldBoulevard),
				FaceValue:       parseMoney(cols.cell(row, fieldFaceValue)),
				PaymentReceived: decimal.Zero,
				Balance:         decimal.Zero,
				Surcharge:       parseMoney(cols.cell(row, fieldSurcharge)),
				OwnerName:       ownerName,
				OwnerNICKey:     nicKey,
			}
			batch.putFile(fileNo, file)
		}

		paid := parseMoney(cols.cell(row, fieldPaid))
		outstanding := parseMoney(cols.cell(row, fieldOutstanding))

		file.PaymentReceived = file.PaymentReceived.Add(paid)
		file.Balance = file.Balance.Add(outstanding)

		file.Transactions = append(file.Transactions, domain.Transaction{
			ID:          fmt.Sprintf("%d-%d", now.UnixMilli(), i),
			Seq:         i,
			Paid:        paid,
			Outstanding: outstanding,
			DueDate:     cols.cell(row, fieldDueDate),
			Description: cols.cell(row, fieldDescription),
			TypeCode:    cols.cell(row, fieldTypeCode),
		})
	}

	return batch, nil
}

// parseMoney parses one monetary cell. An empty value, the literal
// null marker, or a lone dash is zero. Thousands separators and
// parentheses are stripped before parsing; a parenthesized amount
// stays positive. Unparseable values default to zero.
func parseMoney(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "null") || s == "-" {
		return decimal.Zero
	}

	s = strings.NewReplacer(",", "", "(", "", ")", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
