package api

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/application"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	ActionEnter = "enter"
	ActionReset = "reset"
)

// CallDigest is the 32-byte digest a caller signs to authorize action on a raffle.
// Round and playerCount pin the raffle as the caller saw it, so a signature is
// spent as soon as the call succeeds.
func CallDigest(action string, raffleID, round, playerCount, amount int64) []byte {
	return crypto.Keccak256(
		[]byte("raffle:"+action),
		word(raffleID),
		word(round),
		word(playerCount),
		word(amount),
	)
}

// SignCall signs the digest of a call with key in [R || S || V] form
func SignCall(key *ecdsa.PrivateKey, action string, raffleID, round, playerCount, amount int64) ([]byte, error) {
	sig, err := crypto.Sign(CallDigest(action, raffleID, round, playerCount, amount), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s call: %w", action, err)
	}
	return sig, nil
}

// recoverCaller returns the signer of a call. Wallet style V values of 27 and 28
// are accepted; high-s signatures are not.
func recoverCaller(action string, raffleID, round, playerCount, amount int64, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature must be %d bytes, got %d", entities.ErrBadSignature, crypto.SignatureLength, len(signature))
	}

	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return common.Address{}, fmt.Errorf("%w: non-canonical signature", entities.ErrBadSignature)
	}

	pub, err := crypto.SigToPub(CallDigest(action, raffleID, round, playerCount, amount), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", entities.ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// authorize recovers the signer and checks it against claimed unless claimed is zero
func authorize(action string, raffleID int64, claimed common.Address, round, playerCount, amount int64, signature []byte) (application.Authorization, error) {
	caller, err := recoverCaller(action, raffleID, round, playerCount, amount, signature)
	if err != nil {
		return application.Authorization{}, err
	}
	if claimed != (common.Address{}) && claimed != caller {
		return application.Authorization{}, fmt.Errorf("%w: signed by %s, not %s", entities.ErrBadSignature, caller.Hex(), claimed.Hex())
	}
	return application.Authorization{Caller: caller, Round: round, PlayerCount: playerCount}, nil
}

func word(v int64) []byte {
	buf := make([]byte, 32)
	binary.BigEndian.PutUint64(buf[24:], uint64(v))
	return buf
}
