package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// TenantUserCodeLength is the length of generated tenant user ids.
	TenantUserCodeLength = 16
)

// GenerateCode returns a random alphanumeric code of length n.
func GenerateCode(n int) (string, error) {
	result := make([]byte, n)
	charsetLen := big.NewInt(int64(len(codeChars)))

	for i := 0; i < n; i++ {
		randomIndex, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = codeChars[randomIndex.Int64()]
	}

	return string(result), nil
}
