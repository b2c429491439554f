package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// SolanaService builds unsigned transfer transactions against the ledger.
// The visitor signs client-side, so no private key ever reaches this process.
type SolanaService interface {
	BuildTransferTransaction(ctx context.Context, from, to string, lamports uint64) (string, error)
}

// SolanaServiceImpl implements SolanaService on top of a Solana RPC endpoint
type SolanaServiceImpl struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewSolanaService creates a new Solana ledger service. commitment selects
// the blockhash confirmation level; an empty value falls back to finalized.
func NewSolanaService(endpoint string, commitment string) SolanaService {
	c := rpc.CommitmentType(commitment)
	if c == "" {
		c = rpc.CommitmentFinalized
	}
	return &SolanaServiceImpl{
		client:     rpc.New(endpoint),
		commitment: c,
	}
}

// SolToLamports converts a SOL amount to lamports, rounding to the nearest
// lamport.
func SolToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(math.Round(sol * LamportsPerSol))
}

// IsValidSolanaAddress reports whether s parses as a base58 public key.
func IsValidSolanaAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// BuildTransferTransaction assembles an unsigned system transfer from the
// visitor to the recipient and returns it base64 encoded. The blockhash is
// fetched fresh per call so envelopes never share a stale one. A zero
// lamports amount still produces a transfer instruction, keeping the
// envelope shape identical for free and paid actions.
func (s *SolanaServiceImpl) BuildTransferTransaction(ctx context.Context, from, to string, lamports uint64) (string, error) {
	fromKey, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return "", fmt.Errorf("invalid sender account: %w", err)
	}
	toKey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient account: %w", err)
	}

	blockhash, err := s.client.GetLatestBlockhash(ctx, s.commitment)
	if err != nil {
		return "", fmt.Errorf("failed to fetch latest blockhash: %w", err)
	}

	transfer := system.NewTransferInstruction(lamports, fromKey, toKey).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transfer},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(fromKey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return base64.StdEncoding.EncodeToString(serialized), nil
}
