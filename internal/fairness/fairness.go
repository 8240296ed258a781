package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"wager-engine/internal/wager"
)

// 13 hex chars = 52 bits, the widest prefix a float64 mantissa holds exactly.
const prefixHexChars = 13

var prefixMax = float64(uint64(1) << (prefixHexChars * 4))

var ErrHashMismatch = errors.New("server_seed_hash_mismatch")

func GenerateSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Digest is HMAC-SHA256 keyed by the server seed over "clientSeed:nonce".
func Digest(serverSeed, clientSeed string, nonce uint64) string {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(clientSeed + ":" + strconv.FormatUint(nonce, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func NextFloat(serverSeed, clientSeed string, nonce uint64) float64 {
	d := Digest(serverSeed, clientSeed, nonce)
	v, err := strconv.ParseUint(d[:prefixHexChars], 16, 64)
	if err != nil {
		panic(fmt.Sprintf("fairness: digest prefix %q: %v", d[:prefixHexChars], err))
	}
	return float64(v) / prefixMax
}

type Commitment struct {
	BetID          string   `json:"bet_id"`
	ServerSeed     string   `json:"server_seed"`
	ServerSeedHash string   `json:"server_seed_hash"`
	ClientSeed     string   `json:"client_seed"`
	Nonce          uint64   `json:"nonce"`
	Draws          []uint64 `json:"draws"`
}

// NewCommitment generates a fresh server seed for betID. An empty clientSeed is replaced by a random one.
func NewCommitment(betID, clientSeed string) (Commitment, error) {
	serverSeed, err := GenerateSeed()
	if err != nil {
		return Commitment{}, err
	}
	if clientSeed == "" {
		seed, err := GenerateSeed()
		if err != nil {
			return Commitment{}, err
		}
		clientSeed = seed[:16]
	}
	return Commitment{
		BetID:          betID,
		ServerSeed:     serverSeed,
		ServerSeedHash: HashSeed(serverSeed),
		ClientSeed:     clientSeed,
	}, nil
}

func (c *Commitment) Draw() float64 {
	v := NextFloat(c.ServerSeed, c.ClientSeed, c.Nonce)
	c.Draws = append(c.Draws, c.Nonce)
	c.Nonce++
	return v
}

type Reveal struct {
	BetID          string   `json:"bet_id"`
	ServerSeed     string   `json:"server_seed"`
	ServerSeedHash string   `json:"server_seed_hash"`
	ClientSeed     string   `json:"client_seed"`
	NonceSequence  []uint64 `json:"nonce_sequence"`
	// Rules is filled in by the engine from the bet.
	Rules wager.Rules `json:"rules"`
}

func (c Commitment) Reveal(settled bool) (Reveal, error) {
	if !settled {
		return Reveal{}, wager.ErrSeedNotYetRevealed
	}
	seq := make([]uint64, len(c.Draws))
	copy(seq, c.Draws)
	return Reveal{
		BetID:          c.BetID,
		ServerSeed:     c.ServerSeed,
		ServerSeedHash: c.ServerSeedHash,
		ClientSeed:     c.ClientSeed,
		NonceSequence:  seq,
	}, nil
}

func Verify(r Reveal) ([]float64, error) {
	if HashSeed(r.ServerSeed) != r.ServerSeedHash {
		return nil, ErrHashMismatch
	}
	out := make([]float64, 0, len(r.NonceSequence))
	for _, nonce := range r.NonceSequence {
		out = append(out, NextFloat(r.ServerSeed, r.ClientSeed, nonce))
	}
	return out, nil
}

// PickIndices chooses k distinct indices from [0,n) with a partial Fisher-Yates
// shuffle, one draw per pick. The result is sorted.
func PickIndices(draw func() float64, n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("fairness: cannot pick %d of %d", k, n))
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + int(draw()*float64(n-i))
		if j >= n {
			j = n - 1
		}
		pool[i], pool[j] = pool[j], pool[i]
	}
	out := append([]int(nil), pool[:k]...)
	sort.Ints(out)
	return out
}
