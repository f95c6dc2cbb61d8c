package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/orderdesk/backoffice/internal/domain/errors"
	"github.com/orderdesk/backoffice/internal/domain/model"
	"github.com/orderdesk/backoffice/internal/domain/repository"
)

// pgxPool abstracts the connection pool so tests can substitute a mock.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type allocationRepository struct {
	storage *Storage
}

type settlementRepository struct {
	storage *Storage
}

type catalogRepository struct {
	storage *Storage
}

type counterpartyRepository struct {
	storage *Storage
}

type orderRowRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var _ repository.Factory = (*Storage)(nil)

// Factory methods for domain repositories.
func (s *Storage) Allocations() repository.AllocationRepository {
	return &allocationRepository{storage: s}
}

func (s *Storage) Settlements() repository.SettlementRepository {
	return &settlementRepository{storage: s}
}

func (s *Storage) Catalog() repository.ProductCatalog {
	return &catalogRepository{storage: s}
}

func (s *Storage) Counterparties() repository.CounterpartyRepository {
	return &counterpartyRepository{storage: s}
}

func (s *Storage) OrderRows() repository.OrderRowRepository {
	return &orderRowRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS order_rows (
            id BIGSERIAL PRIMARY KEY,
            owner_company TEXT NOT NULL,
            vendor_name TEXT NOT NULL DEFAULT '',
            mapping_code TEXT NOT NULL DEFAULT '',
            channel_id TEXT NOT NULL DEFAULT '',
            supplier_name TEXT NOT NULL DEFAULT '',
            quantity INT NOT NULL DEFAULT 1,
            supply_price BIGINT NOT NULL DEFAULT 0,
            price BIGINT NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT '',
            internal_code TEXT,
            ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            owner_company TEXT NOT NULL,
            mapping_code TEXT NOT NULL,
            product_name TEXT NOT NULL DEFAULT '',
            sale_price BIGINT NOT NULL DEFAULT 0,
            cost_price BIGINT NOT NULL DEFAULT 0,
            bill_type TEXT NOT NULL DEFAULT 'taxable',
            supplier_name TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (owner_company, mapping_code)
        )`,
		`CREATE TABLE IF NOT EXISTS promotions (
            id BIGSERIAL PRIMARY KEY,
            owner_company TEXT NOT NULL,
            channel_id TEXT NOT NULL,
            product_code TEXT NOT NULL,
            event_price BIGINT,
            discount_rate DOUBLE PRECISION,
            valid_from DATE NOT NULL,
            valid_to DATE NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS allocation_sequences (
            owner_company TEXT NOT NULL,
            day TEXT NOT NULL,
            prefix TEXT NOT NULL,
            last_seq INT NOT NULL DEFAULT 0,
            PRIMARY KEY (owner_company, day, prefix)
        )`,
		`CREATE TABLE IF NOT EXISTS counterparties (
            owner_company TEXT NOT NULL,
            kind TEXT NOT NULL,
            key TEXT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            PRIMARY KEY (owner_company, kind, key)
        )`,
		`CREATE TABLE IF NOT EXISTS settlement_summaries (
            owner_company TEXT NOT NULL,
            counterparty_kind TEXT NOT NULL,
            counterparty_key TEXT NOT NULL,
            period_start DATE NOT NULL,
            period_end DATE NOT NULL,
            per_order_shipping BOOLEAN NOT NULL DEFAULT FALSE,
            order_quantity INT NOT NULL DEFAULT 0,
            order_amount BIGINT NOT NULL DEFAULT 0,
            cancel_quantity INT NOT NULL DEFAULT 0,
            cancel_amount BIGINT NOT NULL DEFAULT 0,
            net_amount BIGINT NOT NULL DEFAULT 0,
            taxable_amount BIGINT NOT NULL DEFAULT 0,
            tax_free_amount BIGINT NOT NULL DEFAULT 0,
            total_amount BIGINT NOT NULL DEFAULT 0,
            lines JSONB NOT NULL DEFAULT '[]',
            computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (owner_company, counterparty_kind, counterparty_key, period_start, period_end)
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_order_rows_code ON order_rows(owner_company, internal_code) WHERE internal_code IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_order_rows_channel ON order_rows(owner_company, channel_id, ingested_at)`,
		`CREATE INDEX IF NOT EXISTS idx_order_rows_supplier ON order_rows(owner_company, supplier_name, ingested_at)`,
		`CREATE INDEX IF NOT EXISTS idx_promotions_pair ON promotions(owner_company, channel_id, product_code)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_refresh ON settlement_summaries(period_end, computed_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- AllocationRepository implementation ---

type allocationTxn struct {
	tx pgx.Tx
}

func (r *allocationRepository) WithinAllocation(ctx context.Context, fn func(repository.AllocationTxn) error) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&allocationTxn{tx: tx})
	})
}

// ReserveBlock advances the namespace counter by count in a single statement.
// The row-level write lock taken by the upsert serializes concurrent callers,
// so reserved ranges are always disjoint.
func (t *allocationTxn) ReserveBlock(ctx context.Context, ownerCompany, day, prefix string, count int) (int, error) {
	const query = `INSERT INTO allocation_sequences (owner_company, day, prefix, last_seq)
                   VALUES ($1, $2, $3, $4)
                   ON CONFLICT (owner_company, day, prefix)
                   DO UPDATE SET last_seq = allocation_sequences.last_seq + EXCLUDED.last_seq
                   RETURNING last_seq`
	var last int
	if err := t.tx.QueryRow(ctx, query, ownerCompany, day, prefix, count).Scan(&last); err != nil {
		return 0, err
	}
	return last, nil
}

func (t *allocationTxn) ExistingCodes(ctx context.Context, ownerCompany string, codes []string) (map[string]struct{}, error) {
	const query = `SELECT internal_code FROM order_rows
                   WHERE owner_company=$1 AND internal_code = ANY($2)`
	rows, err := t.tx.Query(ctx, query, ownerCompany, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		existing[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return existing, nil
}

// --- SettlementRepository implementation ---

type settlementTxn struct {
	tx pgx.Tx
}

func (r *settlementRepository) WithinSettlement(ctx context.Context, fn func(repository.SettlementTxn) error) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&settlementTxn{tx: tx})
	})
}

func (t *settlementTxn) AllPromotions(ctx context.Context, ownerCompany string) ([]model.Promotion, error) {
	const query = `SELECT id, owner_company, channel_id, product_code, event_price, discount_rate, valid_from, valid_to
                   FROM promotions WHERE owner_company=$1 ORDER BY id`
	rows, err := t.tx.Query(ctx, query, ownerCompany)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Promotion
	for rows.Next() {
		var p model.Promotion
		if err := rows.Scan(&p.ID, &p.OwnerCompany, &p.ChannelID, &p.ProductCode, &p.EventPrice, &p.DiscountRate, &p.ValidFrom, &p.ValidTo); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *settlementTxn) DeletePromotions(ctx context.Context, ids []int64) error {
	const query = `DELETE FROM promotions WHERE id = ANY($1)`
	_, err := t.tx.Exec(ctx, query, ids)
	return err
}

func (t *settlementTxn) SelectRows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	return selectRows(ctx, t.tx, ownerCompany, counterparty, periodStart, periodEnd, excludeCancelled)
}

func (t *settlementTxn) UpsertSummary(ctx context.Context, summary *model.SettlementSummary) error {
	lines, err := json.Marshal(summary.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines: %w", err)
	}

	const query = `INSERT INTO settlement_summaries (
                       owner_company, counterparty_kind, counterparty_key, period_start, period_end,
                       per_order_shipping, order_quantity, order_amount, cancel_quantity, cancel_amount,
                       net_amount, taxable_amount, tax_free_amount, total_amount, lines, computed_at)
                   VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW())
                   ON CONFLICT (owner_company, counterparty_kind, counterparty_key, period_start, period_end)
                   DO UPDATE SET
                       per_order_shipping = EXCLUDED.per_order_shipping,
                       order_quantity = EXCLUDED.order_quantity,
                       order_amount = EXCLUDED.order_amount,
                       cancel_quantity = EXCLUDED.cancel_quantity,
                       cancel_amount = EXCLUDED.cancel_amount,
                       net_amount = EXCLUDED.net_amount,
                       taxable_amount = EXCLUDED.taxable_amount,
                       tax_free_amount = EXCLUDED.tax_free_amount,
                       total_amount = EXCLUDED.total_amount,
                       lines = EXCLUDED.lines,
                       computed_at = NOW()`
	_, err = t.tx.Exec(ctx, query,
		summary.OwnerCompany, string(summary.Counterparty.Kind), summary.Counterparty.Key,
		summary.PeriodStart, summary.PeriodEnd, summary.Options.PerOrderShippingFee,
		summary.OrderQuantity, summary.OrderAmount, summary.CancelQuantity, summary.CancelAmount,
		summary.NetAmount, summary.TaxableAmount, summary.TaxFreeAmount, summary.TotalAmount, lines)
	return err
}

func (r *settlementRepository) GetSummary(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time) (*model.SettlementSummary, error) {
	const query = `SELECT per_order_shipping, order_quantity, order_amount, cancel_quantity, cancel_amount,
                          net_amount, taxable_amount, tax_free_amount, total_amount, lines
                   FROM settlement_summaries
                   WHERE owner_company=$1 AND counterparty_kind=$2 AND counterparty_key=$3
                     AND period_start=$4 AND period_end=$5`
	summary := model.SettlementSummary{
		OwnerCompany: ownerCompany,
		Counterparty: counterparty,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
	}
	var linesRaw []byte
	err := r.storage.pool.QueryRow(ctx, query,
		ownerCompany, string(counterparty.Kind), counterparty.Key, periodStart, periodEnd).
		Scan(&summary.Options.PerOrderShippingFee, &summary.OrderQuantity, &summary.OrderAmount,
			&summary.CancelQuantity, &summary.CancelAmount, &summary.NetAmount,
			&summary.TaxableAmount, &summary.TaxFreeAmount, &summary.TotalAmount, &linesRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(linesRaw, &summary.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal lines: %w", err)
	}
	return &summary, nil
}

func (r *settlementRepository) ListRefreshable(ctx context.Context, asOf time.Time, limit int) ([]model.SettlementSummary, error) {
	const query = `SELECT owner_company, counterparty_kind, counterparty_key, period_start, period_end, per_order_shipping
                   FROM settlement_summaries
                   WHERE period_end >= $1
                   ORDER BY computed_at
                   LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SettlementSummary
	for rows.Next() {
		var s model.SettlementSummary
		var kind string
		if err := rows.Scan(&s.OwnerCompany, &kind, &s.Counterparty.Key, &s.PeriodStart, &s.PeriodEnd, &s.Options.PerOrderShippingFee); err != nil {
			return nil, err
		}
		s.Counterparty.Kind = model.CounterpartyKind(kind)
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- ProductCatalog implementation ---

func (r *catalogRepository) Resolve(ctx context.Context, ownerCompany, mappingCode string) (*model.Product, error) {
	const query = `SELECT owner_company, mapping_code, product_name, sale_price, cost_price, bill_type, supplier_name
                   FROM products WHERE owner_company=$1 AND mapping_code=$2`
	var p model.Product
	var billType string
	err := r.storage.pool.QueryRow(ctx, query, ownerCompany, mappingCode).
		Scan(&p.OwnerCompany, &p.MappingCode, &p.ProductName, &p.SalePrice, &p.CostPrice, &billType, &p.SupplierName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	p.BillType = model.NormalizeBillType(billType)
	return &p, nil
}

// --- CounterpartyRepository implementation ---

func (r *counterpartyRepository) Exists(ctx context.Context, ownerCompany string, ref model.CounterpartyRef) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM counterparties WHERE owner_company=$1 AND kind=$2 AND key=$3)`
	var exists bool
	err := r.storage.pool.QueryRow(ctx, query, ownerCompany, string(ref.Kind), ref.Key).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// --- OrderRowRepository implementation ---

func (r *orderRowRepository) InsertRows(ctx context.Context, rows []model.OrderRow) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO order_rows (owner_company, vendor_name, mapping_code, channel_id,
                           supplier_name, quantity, supply_price, price, status, ingested_at)
                       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
                       RETURNING id`
		for _, row := range rows {
			var id int64
			if err := tx.QueryRow(ctx, query,
				row.OwnerCompany, row.VendorName, row.MappingCode, row.ChannelID,
				row.SupplierName, row.Quantity, row.SupplyPrice, row.Price,
				row.Status, row.IngestedAt).Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *orderRowRepository) SelectRows(ctx context.Context, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	return selectRows(ctx, r.storage.pool, ownerCompany, counterparty, periodStart, periodEnd, excludeCancelled)
}

func (r *orderRowRepository) AssignCodes(ctx context.Context, ownerCompany string, codes map[int64]string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `UPDATE order_rows SET internal_code=$1
                       WHERE id=$2 AND owner_company=$3 AND internal_code IS NULL`
		for id, code := range codes {
			if _, err := tx.Exec(ctx, query, code, id, ownerCompany); err != nil {
				return err
			}
		}
		return nil
	})
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func selectRows(ctx context.Context, q querier, ownerCompany string, counterparty model.CounterpartyRef, periodStart, periodEnd time.Time, excludeCancelled bool) ([]model.OrderRow, error) {
	query := `SELECT id, owner_company, vendor_name, mapping_code, channel_id, supplier_name,
                     quantity, supply_price, price, status, internal_code, ingested_at
              FROM order_rows
              WHERE owner_company=$1 AND ingested_at >= $2 AND ingested_at < $3`
	// End of period is inclusive at date granularity: the whole end day counts.
	args := []any{ownerCompany, periodStart, periodEnd.AddDate(0, 0, 1)}

	switch counterparty.Kind {
	case model.CounterpartySupplier:
		query += ` AND supplier_name=$4`
	default:
		query += ` AND channel_id=$4`
	}
	args = append(args, counterparty.Key)

	if excludeCancelled {
		query += ` AND LOWER(status) <> '` + model.StatusCancelled + `'`
	}
	query += ` ORDER BY id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderRow
	for rows.Next() {
		var r model.OrderRow
		if err := rows.Scan(&r.ID, &r.OwnerCompany, &r.VendorName, &r.MappingCode, &r.ChannelID, &r.SupplierName,
			&r.Quantity, &r.SupplyPrice, &r.Price, &r.Status, &r.InternalCode, &r.IngestedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
