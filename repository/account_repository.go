package repository

import (
	"context"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// AccountRepository implements payout account data access
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates an account repository on the connection pool
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepositoryWithTx(tx Queryable) interfaces.AccountRepository {
	return &AccountRepository{q: tx}
}

// GetOrCreate returns the account for addr, creating it with a zero balance.
// The row is locked for the rest of the transaction.
func (r *AccountRepository) GetOrCreate(ctx context.Context, addr common.Address) (*entities.Account, error) {
	insert := `
		INSERT INTO accounts (address, balance)
		VALUES ($1, 0)
		ON CONFLICT (address) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, addr.Hex()); err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", addr.Hex(), err)
	}

	query := `
		SELECT balance, created_at, updated_at
		FROM accounts
		WHERE address = $1
		FOR UPDATE
	`

	account := entities.Account{Address: addr}
	err := r.q.QueryRow(ctx, query, addr.Hex()).Scan(
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", addr.Hex(), err)
	}

	return &account, nil
}

// UpdateBalance sets the balance of addr
func (r *AccountRepository) UpdateBalance(ctx context.Context, addr common.Address, newBalance int64) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE address = $1
	`

	result, err := r.q.Exec(ctx, query, addr.Hex(), newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", addr.Hex(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", addr.Hex())
	}

	return nil
}
