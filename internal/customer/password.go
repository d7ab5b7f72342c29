package customer

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLength = 16

	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnpqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#$%^&*-_=+"
)

// GenerateTemporaryPassword returns a random password that satisfies the
// provider's policy: at least one upper, lower, digit and symbol. Ambiguous
// glyphs (O/0, l/1) are excluded so the value survives manual retyping.
func GenerateTemporaryPassword() (string, error) {
	all := upperChars + lowerChars + digitChars + symbolChars

	buf := make([]byte, 0, passwordLength)
	for _, set := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		ch, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, ch)
	}
	for len(buf) < passwordLength {
		ch, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, ch)
	}

	// Shuffle so the required character classes are not at fixed positions.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
