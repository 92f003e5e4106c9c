package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// With 36^6 possible codes a collision is vanishingly rare; the bound
	// exists so exhaustion is a checked error, not a silent infinite loop.
	maxCodeAttempts = 100
)

// codeChecker is the slice of Store the generator needs.
type codeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces the unique 6-character claim codes printed on spot
// markers. Candidates are checked against every existing code, active and
// inactive, before acceptance.
type CodeGenerator struct {
	store codeChecker
}

func NewCodeGenerator(store codeChecker) *CodeGenerator {
	return &CodeGenerator{store: store}
}

func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}

		exists, err := g.store.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, maxCodeAttempts)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("reading randomness: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
