package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

const raffleColumns = `
	id, entrance_fee, interval_ms, key_hash, subscription_id, callback_gas_limit,
	request_confirmations, owner_address, coordinator_address, reset_timestamp_on_admin_reset,
	state, round, player_count, pool_balance, last_draw_at, outstanding_request_id,
	recent_winner, deployed_at, updated_at`

// RaffleRepository implements raffle state persistence
type RaffleRepository struct {
	q Queryable
}

// NewRaffleRepository creates a raffle repository on the connection pool
func NewRaffleRepository(db *database.DB) *RaffleRepository {
	return &RaffleRepository{q: db.Pool}
}

func newRaffleRepositoryWithTx(tx Queryable) interfaces.RaffleRepository {
	return &RaffleRepository{q: tx}
}

// Create inserts a newly deployed raffle and sets its ID
func (r *RaffleRepository) Create(ctx context.Context, raffle *entities.Raffle) error {
	query := `
		INSERT INTO raffles (
			entrance_fee, interval_ms, key_hash, subscription_id, callback_gas_limit,
			request_confirmations, owner_address, coordinator_address, reset_timestamp_on_admin_reset,
			state, round, player_count, pool_balance, last_draw_at, deployed_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING id
	`

	cfg := raffle.Config
	err := r.q.QueryRow(ctx, query,
		cfg.EntranceFee,
		cfg.Interval.Milliseconds(),
		cfg.KeyHash.Hex(),
		cfg.SubscriptionID.String(),
		int64(cfg.CallbackGasLimit),
		int32(cfg.RequestConfirmations),
		cfg.Owner.Hex(),
		cfg.Coordinator.Hex(),
		cfg.ResetTimestampOnAdminReset,
		raffle.State.String(),
		raffle.Round,
		raffle.PlayerCount,
		raffle.PoolBalance,
		raffle.LastDrawAt,
		raffle.DeployedAt,
	).Scan(&raffle.ID)
	if err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}

	return nil
}

// GetByID retrieves a raffle by ID
func (r *RaffleRepository) GetByID(ctx context.Context, id int64) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1`

	raffle, err := scanRaffle(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle by ID %d: %w", id, err)
	}

	return raffle, nil
}

// GetByIDForUpdate retrieves a raffle by ID with a row lock held until the transaction ends
func (r *RaffleRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Raffle, error) {
	query := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = $1 FOR UPDATE`

	raffle, err := scanRaffle(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle for update by ID %d: %w", id, err)
	}

	return raffle, nil
}

// Update writes the live round state. Construction parameters are never touched.
func (r *RaffleRepository) Update(ctx context.Context, raffle *entities.Raffle) error {
	query := `
		UPDATE raffles
		SET state = $2,
		    round = $3,
		    player_count = $4,
		    pool_balance = $5,
		    last_draw_at = $6,
		    outstanding_request_id = $7,
		    recent_winner = $8,
		    updated_at = $9
		WHERE id = $1
	`

	updatedAt := raffle.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := r.q.Exec(ctx, query,
		raffle.ID,
		raffle.State.String(),
		raffle.Round,
		raffle.PlayerCount,
		raffle.PoolBalance,
		raffle.LastDrawAt,
		bigIntToText(raffle.OutstandingRequestID),
		addressToText(raffle.RecentWinner),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update raffle %d: %w", raffle.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("raffle %d not found", raffle.ID)
	}

	return nil
}

// ListIDs returns the IDs of every deployed raffle in ascending order
func (r *RaffleRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM raffles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan raffle ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffles: %w", err)
	}

	return ids, nil
}

func scanRaffle(row pgx.Row) (*entities.Raffle, error) {
	var (
		raffle           entities.Raffle
		intervalMs       int64
		keyHash          string
		subscriptionID   string
		callbackGasLimit int64
		confirmations    int32
		owner            string
		coordinator      string
		state            string
		outstanding      *string
		recentWinner     *string
	)

	err := row.Scan(
		&raffle.ID,
		&raffle.Config.EntranceFee,
		&intervalMs,
		&keyHash,
		&subscriptionID,
		&callbackGasLimit,
		&confirmations,
		&owner,
		&coordinator,
		&raffle.Config.ResetTimestampOnAdminReset,
		&state,
		&raffle.Round,
		&raffle.PlayerCount,
		&raffle.PoolBalance,
		&raffle.LastDrawAt,
		&outstanding,
		&recentWinner,
		&raffle.DeployedAt,
		&raffle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	raffle.Config.Interval = time.Duration(intervalMs) * time.Millisecond
	raffle.Config.KeyHash = common.HexToHash(keyHash)
	raffle.Config.CallbackGasLimit = uint32(callbackGasLimit)
	raffle.Config.RequestConfirmations = uint16(confirmations)
	raffle.Config.Owner = common.HexToAddress(owner)
	raffle.Config.Coordinator = common.HexToAddress(coordinator)

	if raffle.Config.SubscriptionID, err = textToBigInt(subscriptionID); err != nil {
		return nil, err
	}
	if raffle.State, err = entities.ParseRaffleState(state); err != nil {
		return nil, err
	}
	if outstanding != nil {
		if raffle.OutstandingRequestID, err = textToBigInt(*outstanding); err != nil {
			return nil, err
		}
	}
	if recentWinner != nil {
		winner := common.HexToAddress(*recentWinner)
		raffle.RecentWinner = &winner
	}

	return &raffle, nil
}

func bigIntToText(n *big.Int) *string {
	if n == nil {
		return nil
	}
	s := n.String()
	return &s
}

func textToBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func addressToText(addr *common.Address) *string {
	if addr == nil {
		return nil
	}
	s := addr.Hex()
	return &s
}
