// Package chain implements the hash-chained audit ledger: an append-only
// sequence of blocks, each linking the sha256 hash of its predecessor and
// carrying a proof-of-work nonce. It adds tamper-evidence, not consensus;
// there is a single writer and no peers.
package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// DefaultDifficulty is the reference number of leading zero hex digits the
// proof-of-work hash must carry.
const DefaultDifficulty = 5

var (
	ErrBrokenLink   = errors.New("previous-hash link does not match recomputed block hash")
	ErrInvalidProof = errors.New("proof of work does not satisfy the difficulty predicate")
)

// Record is one transfer folded into a block.
type Record struct {
	From      int64     `json:"from"`
	To        int64     `json:"to"`
	Amount    string    `json:"amount"`
	Remark    string    `json:"remark"`
	Timestamp time.Time `json:"timestamp"`
}

// Block is one sealed element of the chain. Blocks are appended, never
// mutated or removed.
type Block struct {
	Index        int       `json:"index" bson:"index"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
	Proof        int64     `json:"proof" bson:"proof"`
	PreviousHash string    `json:"previous_hash" bson:"previous_hash"`
	Transactions []Record  `json:"transactions" bson:"transactions"`
}

// Hash returns the sha256 hash of the block's canonical JSON form.
func (b Block) Hash() string {
	encoded, err := json.Marshal(b)
	if err != nil {
		// Block contains only marshalable fields; this cannot happen.
		panic(fmt.Sprintf("chain: failed to marshal block: %v", err))
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// Chain accumulates pending records and seals them into blocks on Mine.
// All state is guarded by an internal mutex, so one Chain may be shared by
// concurrent transfer callers and a single miner.
type Chain struct {
	mu         sync.Mutex
	blocks     []Block
	pending    []Record
	difficulty int
}

// New creates a chain with a genesis block (proof 1, previous hash "0").
func New(difficulty int) *Chain {
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}
	c := &Chain{difficulty: difficulty}
	c.blocks = append(c.blocks, Block{
		Index:        1,
		Timestamp:    time.Now(),
		Proof:        1,
		PreviousHash: "0",
	})
	return c
}

// Append queues a record for the next mined block and returns the index of
// the block that will contain it.
func (c *Chain) Append(rec Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, rec)
	return len(c.blocks) + 1
}

// Pending returns the number of records not yet folded into a block.
func (c *Chain) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Length returns the number of sealed blocks, including genesis.
func (c *Chain) Length() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Blocks returns a copy of the sealed chain.
func (c *Chain) Blocks() []Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Mine solves the proof-of-work puzzle against the previous block, seals all
// pending records into a new block, and clears the pending set. The search
// honors ctx cancellation between nonce attempts.
func (c *Chain) Mine(ctx context.Context) (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.blocks[len(c.blocks)-1]
	proof, err := proofOfWork(ctx, previous.Proof, c.difficulty)
	if err != nil {
		return Block{}, err
	}

	block := Block{
		Index:        len(c.blocks) + 1,
		Timestamp:    time.Now(),
		Proof:        proof,
		PreviousHash: previous.Hash(),
		Transactions: c.pending,
	}
	c.blocks = append(c.blocks, block)
	c.pending = nil

	return block, nil
}

// Validate replays the previous-hash linkage and the proof-of-work predicate
// for every consecutive block pair. A mismatch invalidates the chain from
// that point forward.
func (c *Chain) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 1; i < len(c.blocks); i++ {
		previous, block := c.blocks[i-1], c.blocks[i]
		if block.PreviousHash != previous.Hash() {
			return fmt.Errorf("block %d: %w", block.Index, ErrBrokenLink)
		}
		if !validProof(previous.Proof, block.Proof, c.difficulty) {
			return fmt.Errorf("block %d: %w", block.Index, ErrInvalidProof)
		}
	}
	return nil
}

// BlockRecord is a record paired with the sealed block it belongs to.
type BlockRecord struct {
	Record
	BlockIndex int    `json:"block_index"`
	BlockHash  string `json:"block_hash"`
}

// HistoryFor returns every sealed record touching the given account.
func (c *Chain) HistoryFor(accountNo int64) []BlockRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	var history []BlockRecord
	for _, block := range c.blocks {
		for _, rec := range block.Transactions {
			if rec.From == accountNo || rec.To == accountNo {
				history = append(history, BlockRecord{
					Record:     rec,
					BlockIndex: block.Index,
					BlockHash:  block.Hash(),
				})
			}
		}
	}
	return history
}

// proofOfWork searches for p such that sha256 of the decimal rendering of
// p^2 - previousProof^2 has the required number of leading zero hex digits.
// Squaring is done in big-integer arithmetic so large nonces never wrap.
func proofOfWork(ctx context.Context, previousProof int64, difficulty int) (int64, error) {
	for p := int64(1); ; p++ {
		if p%4096 == 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}
		if validProof(previousProof, p, difficulty) {
			return p, nil
		}
	}
}

func validProof(previousProof, proof int64, difficulty int) bool {
	diff := new(big.Int).Sub(
		new(big.Int).Mul(big.NewInt(proof), big.NewInt(proof)),
		new(big.Int).Mul(big.NewInt(previousProof), big.NewInt(previousProof)),
	)
	sum := sha256.Sum256([]byte(diff.String()))
	return strings.HasPrefix(hex.EncodeToString(sum[:]), strings.Repeat("0", difficulty))
}
