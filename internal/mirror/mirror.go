// Package mirror keeps a best-effort remote copy of the owners and
// files collections in BigQuery. The mirror is never authoritative at
// runtime: it is written after every merge and read back only during
// bootstrap. Callers log and swallow its errors; a missed sync is
// corrected by the next mutation of the same collection.
package mirror

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/property-registry/internal/domain"
)

const (
	ownersTable = "owners"
	filesTable  = "files"
)

// Mirror is the remote mirror connector. Construct one only when the
// remote capability is configured; a nil *Mirror is a valid "disabled"
// value for which every method is a no-op.
type Mirror struct {
	client  *bigquery.Client
	dataset string
}

// New creates a connector against the given project and dataset.
func New(ctx context.Context, projectID, dataset string) (*Mirror, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: bigquery client: %w", err)
	}
	return &Mirror{client: client, dataset: dataset}, nil
}

// NewWithClient creates a connector over an existing client.
func NewWithClient(client *bigquery.Client, dataset string) *Mirror {
	return &Mirror{client: client, dataset: dataset}
}

// Close closes the underlying client.
func (m *Mirror) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Enabled reports whether the connector is live.
func (m *Mirror) Enabled() bool { return m != nil }

// UpsertOwners merges the batch into the remote owners table by
// nic_key: matching records are updated in place, the rest inserted.
func (m *Mirror) UpsertOwners(ctx context.Context, owners []domain.Owner) error {
	if m == nil || len(owners) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, o := range owners {
		if err := m.upsertOwner(ctx, ownerToRow(o, now)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) upsertOwner(ctx context.Context, row *OwnerRow) error {
	q := m.client.Query(fmt.Sprintf(`
		MERGE %s.%s T
		USING (SELECT @nic_key AS nic_key) S
		ON T.nic_key = S.nic_key
		WHEN MATCHED THEN UPDATE SET
			owner_id = @owner_id,
			nic = @nic,
			name = @name,
			phone = @phone,
			email = @email,
			role = @role,
			status = @status,
			secret_hash = @secret_hash,
			import_date = @import_date,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			owner_id, nic, nic_key, name, phone, email, role, status, secret_hash, import_date, updated_ts
		) VALUES (
			@owner_id, @nic, @nic_key, @name, @phone, @email, @role, @status, @secret_hash, @import_date, @updated_ts
		)
	`, m.dataset, ownersTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner_id", Value: row.OwnerID},
		{Name: "nic", Value: row.NIC},
		{Name: "nic_key", Value: row.NICKey},
		{Name: "name", Value: row.Name},
		{Name: "phone", Value: row.Phone},
		{Name: "email", Value: row.Email},
		{Name: "role", Value: row.Role},
		{Name: "status", Value: row.Status},
		{Name: "secret_hash", Value: row.SecretHash},
		{Name: "import_date", Value: row.ImportDate},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	return m.runDML(ctx, q, "upsertOwner")
}

// UpsertFiles merges the batch into the remote files table by file_no.
func (m *Mirror) UpsertFiles(ctx context.Context, files []domain.PropertyFile) error {
	if m == nil || len(files) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, f := range files {
		row, err := fileToRow(f, now)
		if err != nil {
			return fmt.Errorf("UpsertFiles: %w", err)
		}
		if err := m.upsertFile(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) upsertFile(ctx context.Context, row *FileRow) error {
	q := m.client.Query(fmt.Sprintf(`
		MERGE %s.%s T
		USING (SELECT @file_no AS file_no) S
		ON T.file_no = S.file_no
		WHEN MATCHED THEN UPDATE SET
			plot_size = @plot_size,
			block = @block,
			park = @park,
			corner = @corner,
			boulevard = @boulevard,
			face_value = @face_value,
			payment_received = @payment_received,
			balance = @balance,
			surcharge = @surcharge,
			owner_name = @owner_name,
			owner_nic_key = @owner_nic_key,
			transactions_json = @transactions_json,
			import_date = @import_date,
			updated_ts = @updated_ts
		WHEN NOT MATCHED THEN INSERT (
			file_no, plot_size, block, park, corner, boulevard,
			face_value, payment_received, balance, surcharge,
			owner_name, owner_nic_key, transactions_json, import_date, updated_ts
		) VALUES (
			@file_no, @plot_size, @block, @park, @corner, @boulevard,
			@face_value, @payment_received, @balance, @surcharge,
			@owner_name, @owner_nic_key, @transactions_json, @import_date, @updated_ts
		)
	`, m.dataset, filesTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "file_no", Value: row.FileNo},
		{Name: "plot_size", Value: row.PlotSize},
		{Name: "block", Value: row.Block},
		{Name: "park", Value: row.Park},
		{Name: "corner", Value: row.Corner},
		{Name: "boulevard", Value: row.Boulevard},
		{Name: "face_value", Value: row.FaceValue},
		{Name: "payment_received", Value: row.PaymentReceived},
		{Name: "balance", Value: row.Balance},
		{Name: "surcharge", Value: row.Surcharge},
		{Name: "owner_name", Value: row.OwnerName},
		{Name: "owner_nic_key", Value: row.OwnerNICKey},
		{Name: "transactions_json", Value: row.TransactionsJSON},
		{Name: "import_date", Value: row.ImportDate},
		{Name: "updated_ts", Value: row.UpdatedTS},
	}

	return m.runDML(ctx, q, "upsertFile")
}

func (m *Mirror) runDML(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

// FetchOwners reads the full remote owners table. Used only by
// bootstrap, where a non-empty result replaces the local collection.
func (m *Mirror) FetchOwners(ctx context.Context) ([]domain.Owner, error) {
	if m == nil {
		return nil, nil
	}

	q := m.client.Query(fmt.Sprintf(`
		SELECT owner_id, nic, nic_key, name, phone, email, role, status, secret_hash, import_date, updated_ts
		FROM %s.%s
		ORDER BY updated_ts
	`, m.dataset, ownersTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchOwners: reading query: %w", err)
	}

	var owners []domain.Owner
	for {
		var row OwnerRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FetchOwners: iterating: %w", err)
		}
		owners = append(owners, rowToOwner(&row))
	}
	return owners, nil
}

// FetchFiles reads the full remote files table.
func (m *Mirror) FetchFiles(ctx context.Context) ([]domain.PropertyFile, error) {
	if m == nil {
		return nil, nil
	}

	q := m.client.Query(fmt.Sprintf(`
		SELECT file_no, plot_size, block, park, corner, boulevard,
			face_value, payment_received, balance, surcharge,
			owner_name, owner_nic_key, transactions_json, import_date, updated_ts
		FROM %s.%s
		ORDER BY updated_ts
	`, m.dataset, filesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFiles: reading query: %w", err)
	}

	var files []domain.PropertyFile
	for {
		var row FileRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FetchFiles: iterating: %w", err)
		}
		f, err := rowToFile(&row)
		if err != nil {
			return nil, fmt.Errorf("FetchFiles: %w", err)
		}
		files = append(files, f)
	}
	return files, nil
}
