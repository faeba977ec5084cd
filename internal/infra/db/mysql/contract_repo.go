package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/solidity-sec/internal/domain/contracts"
)

type ContractRepository struct {
	db *sql.DB
}

func NewContractRepository(db *sql.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Save insert/update Contract record
func (r *ContractRepository) Save(ctx context.Context, c *domain.Contract) error {
	const q = `
INSERT INTO contracts
(id, name, code, code_hash, network, address, verified, compiler_version, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 name=VALUES(name), address=VALUES(address), verified=VALUES(verified),
 compiler_version=VALUES(compiler_version), updated_at=VALUES(updated_at);
`
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.Code, c.CodeHash, string(c.Network),
		nullString(c.Address), c.Verified, nullString(c.CompilerVersion),
		created, updated,
	)
	return err
}

const contractColumns = `id, name, code, code_hash, network, address, verified, compiler_version, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }) (*domain.Contract, error) {
	var c domain.Contract
	var address, compiler sql.NullString
	if err := row.Scan(
		&c.ID, &c.Name, &c.Code, &c.CodeHash, &c.Network,
		&address, &c.Verified, &compiler, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Address = address.String
	c.CompilerVersion = compiler.String
	return &c, nil
}

// Get by ID
func (r *ContractRepository) Get(ctx context.Context, id domain.ContractID) (*domain.Contract, error) {
	const q = `SELECT ` + contractColumns + ` FROM contracts WHERE id=? LIMIT 1;`
	return scanContract(r.db.QueryRowContext(ctx, q, id))
}

// FindByHash returns nil (no error) when no contract has this code hash.
func (r *ContractRepository) FindByHash(ctx context.Context, codeHash string) (*domain.Contract, error) {
	const q = `SELECT ` + contractColumns + ` FROM contracts WHERE code_hash=? LIMIT 1;`
	c, err := scanContract(r.db.QueryRowContext(ctx, q, codeHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns contracts by recency
func (r *ContractRepository) List(ctx context.Context, limit int) ([]*domain.Contract, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT ` + contractColumns + ` FROM contracts ORDER BY created_at DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateVerification sets on-chain metadata; the only mutation allowed after creation.
func (r *ContractRepository) UpdateVerification(ctx context.Context, id domain.ContractID, address string, verified bool) error {
	const q = `UPDATE contracts SET address=?, verified=?, updated_at=? WHERE id=?;`
	res, err := r.db.ExecContext(ctx, q, nullString(address), verified, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a contract; its analyses cascade at the schema level.
func (r *ContractRepository) Delete(ctx context.Context, id domain.ContractID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id=?;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
