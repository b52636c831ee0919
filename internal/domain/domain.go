package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Role is an owner's access role. The set is closed.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Status is an owner's account status. Owners are never hard-deleted,
// only status-flagged.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Owner is one identity record. NICKey (the normalized national
// identity number) is the natural key: it must be unique across all
// owners in a collection-consistent state.
type Owner struct {
	ID         string `json:"id"`
	NIC        string `json:"nic"`
	NICKey     string `json:"nicKey"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Status     Status `json:"status"`
	SecretHash string `json:"secretHash"`
}

// PropertyFile is one property record. FileNo is the natural key.
// OwnerName/OwnerNICKey are a denormalized back-reference to the owner
// present in the same ingestion batch, not an ownership pointer.
// PaymentReceived and Balance accumulate solely from the transactions
// recorded against the file during ingestion.
type PropertyFile struct {
	FileNo string `json:"fileNo"`

	PlotSize  string `json:"plotSize"`
	Block     string `json:"block"`
	Park      string `json:"park"`
	Corner    string `json:"corner"`
	Boulevard string `json:"boulevard"`

	FaceValue       decimal.Decimal `json:"faceValue"`
	PaymentReceived decimal.Decimal `json:"paymentReceived"`
	Balance         decimal.Decimal `json:"balance"`
	Surcharge       decimal.Decimal `json:"surcharge"`

	OwnerName   string `json:"ownerName"`
	OwnerNICKey string `json:"ownerNicKey"`

	Transactions []Transaction `json:"transactions"`
}

// Transaction is one ledger line owned exclusively by its property
// file. Seq is the source row ordinal; it is unique within a file and
// increases with ingestion order, but is only a display-stable replay
// index, not a correctness-critical sort key. ID is synthesized from
// import time and ordinal and is not stable across re-imports.
type Transaction struct {
	ID          string          `json:"id"`
	Seq         int             `json:"seq"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	DueDate     string          `json:"dueDate"`
	Description string          `json:"description"`
	TypeCode    string          `json:"typeCode"`
}

// Notice is an auxiliary broadcast record. The reconciliation engine
// only persists it verbatim.
type Notice struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// Message is an auxiliary direct-communication record.
type Message struct {
	ID        string `json:"id"`
	FromID    string `json:"fromId"`
	ToID      string `json:"toId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

// nicCheckLetter is the single terminal check letter retained by NIC
// normalization.
const nicCheckLetter = 'V'

// NormalizeNIC derives the owner natural key from a free-form national
// identity number: uppercase, then strip every character that is not a
// digit or the terminal check letter. Returns "" when nothing useful
// remains.
func NormalizeNIC(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= '0' && r <= '9') || r == nicCheckLetter {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PlaceholderEmail derives the contact e-mail assigned to owners
// materialized from a bulk import.
func PlaceholderEmail(nicKey string) string {
	return strings.ToLower(nicKey) + "@registry.local"
}
