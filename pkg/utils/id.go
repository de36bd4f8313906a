package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位 hex 主键
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewToken 邀请令牌等一次性随机串
func NewToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
