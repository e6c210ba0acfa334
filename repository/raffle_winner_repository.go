package repository

import (
	"context"
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// RaffleWinnerRepository implements resolved round history
type RaffleWinnerRepository struct {
	q Queryable
}

// NewRaffleWinnerRepository creates a winner repository on the connection pool
func NewRaffleWinnerRepository(db *database.DB) *RaffleWinnerRepository {
	return &RaffleWinnerRepository{q: db.Pool}
}

func newRaffleWinnerRepositoryWithTx(tx Queryable) interfaces.RaffleWinnerRepository {
	return &RaffleWinnerRepository{q: tx}
}

// Create records the outcome of a round
func (r *RaffleWinnerRepository) Create(ctx context.Context, winner *entities.RaffleWinner) error {
	query := `
		INSERT INTO raffle_winners
		(raffle_id, round, request_id, random_word, winner_index, player_count, winner_address, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		winner.RaffleID,
		winner.Round,
		winner.RequestID.String(),
		winner.RandomWord.String(),
		winner.WinnerIndex,
		winner.PlayerCount,
		winner.Winner.Hex(),
		winner.Amount,
		winner.CreatedAt,
	).Scan(&winner.ID)
	if err != nil {
		return fmt.Errorf("failed to create raffle winner: %w", err)
	}

	return nil
}

// GetRecentByRaffle returns the latest resolved rounds of a raffle, newest first
func (r *RaffleWinnerRepository) GetRecentByRaffle(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error) {
	query := `
		SELECT id, raffle_id, round, request_id, random_word, winner_index,
		       player_count, winner_address, amount, created_at
		FROM raffle_winners
		WHERE raffle_id = $1
		ORDER BY round DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, raffleID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners for raffle %d: %w", raffleID, err)
	}
	defer rows.Close()

	var winners []*entities.RaffleWinner
	for rows.Next() {
		var (
			winner     entities.RaffleWinner
			requestID  string
			randomWord string
			address    string
		)
		err := rows.Scan(
			&winner.ID,
			&winner.RaffleID,
			&winner.Round,
			&requestID,
			&randomWord,
			&winner.WinnerIndex,
			&winner.PlayerCount,
			&address,
			&winner.Amount,
			&winner.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle winner: %w", err)
		}

		if winner.RequestID, err = textToBigInt(requestID); err != nil {
			return nil, err
		}
		if winner.RandomWord, err = textToBigInt(randomWord); err != nil {
			return nil, err
		}
		winner.Winner = common.HexToAddress(address)
		winners = append(winners, &winner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raffle winners: %w", err)
	}

	return winners, nil
}
