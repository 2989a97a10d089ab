package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// IsValidUUID 校验 8-4-4-4-12 格式的 UUID
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// TrimToNil 去除首尾空白，空串返回 nil
func TrimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// StrPtr 空串返回 nil
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FormatDuration 秒数格式化为 "N min" / "N sec"
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	if seconds < 60 {
		return fmt.Sprintf("%d sec", int(seconds+0.5))
	}
	return fmt.Sprintf("%d min", int(seconds/60+0.5))
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func GenerateRandomString(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = randomAlphabet[i%len(randomAlphabet)]
			continue
		}
		b[i] = randomAlphabet[idx.Int64()]
	}
	return string(b)
}
