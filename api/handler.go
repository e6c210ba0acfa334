package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultWinnerLimit  = 10
	defaultHistoryLimit = 20
	maxListLimit        = 100
)

// RaffleBackend is the raffle contract surface exposed over HTTP
type RaffleBackend interface {
	ListRaffleIDs(ctx context.Context) ([]int64, error)
	GetRaffle(ctx context.Context, raffleID int64) (*entities.Raffle, error)
	EnterAuthorized(ctx context.Context, raffleID int64, auth application.Authorization, amount int64) (*entities.RaffleEntry, error)
	GetPlayer(ctx context.Context, raffleID, index int64) (common.Address, error)
	GetPlayers(ctx context.Context, raffleID int64) ([]*entities.RaffleEntry, error)
	CheckUpkeep(ctx context.Context, raffleID int64, checkData []byte) (bool, []byte, error)
	PerformUpkeep(ctx context.Context, raffleID int64, performData []byte) (*big.Int, error)
	ResetRoundAuthorized(ctx context.Context, raffleID int64, auth application.Authorization) error
	GetRecentWinners(ctx context.Context, raffleID int64, limit int) ([]*entities.RaffleWinner, error)
	GetAccount(ctx context.Context, addr common.Address, historyLimit int) (*application.AccountView, error)
}

// Fulfiller delivers pending randomness. Only the local mock coordinator implements it.
type Fulfiller interface {
	FulfillRandomWords(ctx context.Context, requestID *big.Int) error
}

// Faucet credits test funds to accounts. Only served next to the mock coordinator.
type Faucet interface {
	Deposit(ctx context.Context, addr common.Address, amount int64) (*entities.Account, error)
}

// APIHandler implements the raffle HTTP endpoints
type APIHandler struct {
	backend   RaffleBackend
	fulfiller Fulfiller
	faucet    Faucet
}

// NewAPIHandler creates a handler. fulfiller and faucet may be nil.
func NewAPIHandler(backend RaffleBackend, fulfiller Fulfiller, faucet Faucet) *APIHandler {
	return &APIHandler{
		backend:   backend,
		fulfiller: fulfiller,
		faucet:    faucet,
	}
}

func (h *APIHandler) ListRaffles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.backend.ListRaffleIDs(r.Context())
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	raffles := make([]RaffleResponse, 0, len(ids))
	for _, id := range ids {
		raffle, err := h.backend.GetRaffle(r.Context(), id)
		if err != nil {
			h.errorResponse(w, r, err)
			return
		}
		raffles = append(raffles, toRaffleResponse(raffle))
	}
	h.jsonResponse(w, r, http.StatusOK, raffles)
}

func (h *APIHandler) GetRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	raffle, err := h.backend.GetRaffle(r.Context(), raffleID)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusOK, toRaffleResponse(raffle))
}

func (h *APIHandler) Enter(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	var req EnterRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	var player common.Address
	if req.Player != "" {
		if player, err = parseAddress("player", req.Player); err != nil {
			h.errorResponse(w, r, err)
			return
		}
	}

	auth, err := authorize(ActionEnter, raffleID, player, req.Round, req.PlayerCount, req.Amount, req.Signature)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	entry, err := h.backend.EnterAuthorized(r.Context(), raffleID, auth, req.Amount)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusCreated, toEntryResponse(entry))
}

func (h *APIHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	entries, err := h.backend.GetPlayers(r.Context(), raffleID)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}
	h.jsonResponse(w, r, http.StatusOK, resp)
}

func (h *APIHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	index, err := int64Param(r, "index")
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	player, err := h.backend.GetPlayer(r.Context(), raffleID, index)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusOK, PlayerResponse{Index: index, Player: player.Hex()})
}

func (h *APIHandler) CheckUpkeep(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	needed, performData, err := h.backend.CheckUpkeep(r.Context(), raffleID, nil)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusOK, UpkeepResponse{
		UpkeepNeeded: needed,
		PerformData:  hexutil.Encode(performData),
	})
}

func (h *APIHandler) PerformUpkeep(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	requestID, err := h.backend.PerformUpkeep(r.Context(), raffleID, nil)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusAccepted, PerformUpkeepResponse{RequestID: requestID.String()})
}

func (h *APIHandler) ResetRound(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	var req CallerRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}
	var caller common.Address
	if req.Caller != "" {
		if caller, err = parseAddress("caller", req.Caller); err != nil {
			h.errorResponse(w, r, err)
			return
		}
	}

	auth, err := authorize(ActionReset, raffleID, caller, req.Round, req.PlayerCount, 0, req.Signature)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := h.backend.ResetRoundAuthorized(r.Context(), raffleID, auth); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	raffle, err := h.backend.GetRaffle(r.Context(), raffleID)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusOK, toRaffleResponse(raffle))
}

func (h *APIHandler) GetRecentWinners(w http.ResponseWriter, r *http.Request) {
	raffleID, err := raffleIDParam(r)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	limit, err := limitParam(r, defaultWinnerLimit)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	winners, err := h.backend.GetRecentWinners(r.Context(), raffleID, limit)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	resp := make([]WinnerResponse, len(winners))
	for i, winner := range winners {
		resp[i] = toWinnerResponse(winner)
	}
	h.jsonResponse(w, r, http.StatusOK, resp)
}

func (h *APIHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	limit, err := limitParam(r, defaultHistoryLimit)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	view, err := h.backend.GetAccount(r.Context(), addr, limit)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	resp := AccountResponse{
		Address: view.Account.Address.Hex(),
		Balance: view.Account.Balance,
		History: make([]BalanceChangeResponse, len(view.History)),
	}
	for i, change := range view.History {
		resp.History[i] = BalanceChangeResponse{
			RaffleID:        change.RaffleID,
			BalanceBefore:   change.BalanceBefore,
			BalanceAfter:    change.BalanceAfter,
			ChangeAmount:    change.ChangeAmount,
			TransactionType: string(change.TransactionType),
			CreatedAt:       change.CreatedAt.Unix(),
		}
	}
	h.jsonResponse(w, r, http.StatusOK, resp)
}

// Deposit credits test funds to an account
func (h *APIHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if h.faucet == nil {
		h.NotImplemented(w, r)
		return
	}

	addr, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	var req DepositRequest
	if err := decodeBody(r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	account, err := h.faucet.Deposit(r.Context(), addr, req.Amount)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}
	h.jsonResponse(w, r, http.StatusCreated, AccountResponse{
		Address: account.Address.Hex(),
		Balance: account.Balance,
		History: []BalanceChangeResponse{},
	})
}

// FulfillRequest triggers the mock coordinator for a pending request
func (h *APIHandler) FulfillRequest(w http.ResponseWriter, r *http.Request) {
	if h.fulfiller == nil {
		h.NotImplemented(w, r)
		return
	}

	raw := mux.Vars(r)["request_id"]
	requestID, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		h.errorResponse(w, r, NewBadRequestError(fmt.Errorf("invalid request ID %q", raw)))
		return
	}

	if err := h.fulfiller.FulfillRandomWords(r.Context(), requestID); err != nil {
		if errors.Is(err, vrf.ErrInvalidRequest) {
			err = &StatusError{status: http.StatusNotFound, userMessage: err.Error(), err: err}
		}
		h.errorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) NotImplemented(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusNotImplemented)
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("url", r.URL.String()).Error("Failed to encode response")
		h.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if _, err := w.Write(encoded); err != nil {
		log.WithError(err).WithField("url", r.URL.String()).Error("Failed to write response")
	}
}

// errorResponse writes err as a ModelError with the status it maps to
func (h *APIHandler) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	se := ErrorToStatusError(err)
	if se.Status() == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"url":   r.URL.String(),
			"error": err,
		}).Error("Request failed")
	}

	encoded, encErr := json.Marshal(ModelError{Code: se.Status(), Message: se.UserMessage()})
	if encErr != nil {
		log.WithError(encErr).Error("Failed to encode error response")
		w.WriteHeader(se.Status())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(se.Status())
	if _, err := w.Write(encoded); err != nil {
		log.WithError(err).Error("Failed to send error response")
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return NewBadRequestError(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func raffleIDParam(r *http.Request) (int64, error) {
	return int64Param(r, "id")
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewBadRequestError(fmt.Errorf("invalid %s %q", name, raw))
	}
	return v, nil
}

func limitParam(r *http.Request, defaultLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxListLimit {
		return 0, NewBadRequestError(fmt.Errorf("limit must be in [1, %d]", maxListLimit))
	}
	return limit, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, NewBadRequestError(fmt.Errorf("%w: %s %q", entities.ErrInvalidAddress, field, raw))
	}
	return common.HexToAddress(raw), nil
}
