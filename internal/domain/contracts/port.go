package contracts

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, c *Contract) error
	Get(ctx context.Context, id ContractID) (*Contract, error)
	// FindByHash supports reuse of an existing row for identical code.
	FindByHash(ctx context.Context, codeHash string) (*Contract, error)
	List(ctx context.Context, limit int) ([]*Contract, error)
	UpdateVerification(ctx context.Context, id ContractID, address string, verified bool) error
	Delete(ctx context.Context, id ContractID) error
}
