package services

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
)

const (
	systemProgramKey = "11111111111111111111111111111111"
	voteProgramKey   = "Vote111111111111111111111111111111111111111"
)

func TestSolToLamports(t *testing.T) {
	tests := []struct {
		sol      float64
		expected uint64
	}{
		{0, 0},
		{-1, 0},
		{1, 1_000_000_000},
		{0.5, 500_000_000},
		{0.000000001, 1},
		{0.0000000015, 2},
		{2.25, 2_250_000_000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SolToLamports(tt.sol), "sol=%v", tt.sol)
	}
}

func TestIsValidSolanaAddress(t *testing.T) {
	assert.True(t, IsValidSolanaAddress(systemProgramKey))
	assert.True(t, IsValidSolanaAddress(voteProgramKey))

	assert.False(t, IsValidSolanaAddress(""))
	assert.False(t, IsValidSolanaAddress("abc"))
	assert.False(t, IsValidSolanaAddress("not-base58-0OIl"))
	assert.False(t, IsValidSolanaAddress(systemProgramKey+"1111111111111111"))
}

func TestBuildTransferTransactionRejectsBadKeys(t *testing.T) {
	// Key parsing fails before any RPC call, so no endpoint is needed.
	svc := NewSolanaService("http://127.0.0.1:1", "confirmed")

	_, err := svc.BuildTransferTransaction(context.Background(), "bogus", systemProgramKey, 1)
	assert.ErrorContains(t, err, "invalid sender account")

	_, err = svc.BuildTransferTransaction(context.Background(), systemProgramKey, "bogus", 1)
	assert.ErrorContains(t, err, "invalid recipient account")
}

func TestNewSolanaServiceCommitment(t *testing.T) {
	svc := NewSolanaService("http://127.0.0.1:1", "confirmed").(*SolanaServiceImpl)
	assert.Equal(t, rpc.CommitmentConfirmed, svc.commitment)

	svc = NewSolanaService("http://127.0.0.1:1", "").(*SolanaServiceImpl)
	assert.Equal(t, rpc.CommitmentFinalized, svc.commitment)
}
