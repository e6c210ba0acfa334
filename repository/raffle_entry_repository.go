package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// RaffleEntryRepository implements participant list data access
type RaffleEntryRepository struct {
	q Queryable
}

// NewRaffleEntryRepository creates an entry repository on the connection pool
func NewRaffleEntryRepository(db *database.DB) *RaffleEntryRepository {
	return &RaffleEntryRepository{q: db.Pool}
}

func newRaffleEntryRepositoryWithTx(tx Queryable) interfaces.RaffleEntryRepository {
	return &RaffleEntryRepository{q: tx}
}

// Create appends an entry to a round
func (r *RaffleEntryRepository) Create(ctx context.Context, entry *entities.RaffleEntry) error {
	query := `
		INSERT INTO raffle_entries (raffle_id, round, slot, player_address, amount, entered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		entry.RaffleID,
		entry.Round,
		entry.Slot,
		entry.Player.Hex(),
		entry.Amount,
		entry.EnteredAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create raffle entry: %w", err)
	}

	return nil
}

// GetBySlot returns the entry occupying slot in the given round
func (r *RaffleEntryRepository) GetBySlot(ctx context.Context, raffleID, round, slot int64) (*entities.RaffleEntry, error) {
	query := `
		SELECT id, raffle_id, round, slot, player_address, amount, entered_at
		FROM raffle_entries
		WHERE raffle_id = $1 AND round = $2 AND slot = $3
	`

	entry, err := scanEntry(r.q.QueryRow(ctx, query, raffleID, round, slot))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d of round %d: %w", slot, round, err)
	}

	return entry, nil
}

// GetByRound returns every entry of a round in slot order
func (r *RaffleEntryRepository) GetByRound(ctx context.Context, raffleID, round int64) ([]*entities.RaffleEntry, error) {
	query := `
		SELECT id, raffle_id, round, slot, player_address, amount, entered_at
		FROM raffle_entries
		WHERE raffle_id = $1 AND round = $2
		ORDER BY slot ASC
	`

	rows, err := r.q.Query(ctx, query, raffleID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for round %d: %w", round, err)
	}
	defer rows.Close()

	var entries []*entities.RaffleEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*entities.RaffleEntry, error) {
	var entry entities.RaffleEntry
	var player string
	err := row.Scan(
		&entry.ID,
		&entry.RaffleID,
		&entry.Round,
		&entry.Slot,
		&player,
		&entry.Amount,
		&entry.EnteredAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Player = common.HexToAddress(player)
	return &entry, nil
}
