package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceHistoryRepository implements the balance audit trail
type BalanceHistoryRepository struct {
	q Queryable
}

// NewBalanceHistoryRepository creates a balance history repository on the connection pool
func NewBalanceHistoryRepository(db *database.DB) *BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: db.Pool}
}

func newBalanceHistoryRepositoryWithTx(tx Queryable) interfaces.BalanceHistoryRepository {
	return &BalanceHistoryRepository{q: tx}
}

// Record inserts a balance history entry
func (r *BalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	metadataJSON, err := json.Marshal(history.TransactionMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	var raffleID *int64
	if history.RaffleID != 0 {
		raffleID = &history.RaffleID
	}

	query := `
		INSERT INTO balance_history
		(address, raffle_id, balance_before, balance_after, change_amount, transaction_type, transaction_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		history.Address.Hex(),
		raffleID,
		history.BalanceBefore,
		history.BalanceAfter,
		history.ChangeAmount,
		string(history.TransactionType),
		metadataJSON,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance history for %s: %w", history.Address.Hex(), err)
	}

	return nil
}

// GetByAddress returns the most recent balance changes of addr, newest first
func (r *BalanceHistoryRepository) GetByAddress(ctx context.Context, addr common.Address, limit int) ([]*entities.BalanceHistory, error) {
	query := `
		SELECT id, COALESCE(raffle_id, 0), balance_before, balance_after, change_amount,
		       transaction_type, transaction_metadata, created_at
		FROM balance_history
		WHERE address = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, addr.Hex(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history for %s: %w", addr.Hex(), err)
	}
	defer rows.Close()

	var histories []*entities.BalanceHistory
	for rows.Next() {
		history := entities.BalanceHistory{Address: addr}
		var transactionType string
		var metadataJSON []byte

		err := rows.Scan(
			&history.ID,
			&history.RaffleID,
			&history.BalanceBefore,
			&history.BalanceAfter,
			&history.ChangeAmount,
			&transactionType,
			&metadataJSON,
			&history.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance history: %w", err)
		}
		history.TransactionType = entities.TransactionType(transactionType)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &history.TransactionMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		histories = append(histories, &history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance history: %w", err)
	}

	return histories, nil
}
