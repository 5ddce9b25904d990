package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasher_Hash(t *testing.T) {
	h := NewHasher([]byte("key"))

	mac := hmac.New(sha256.New, []byte("key"))
	mac.Write([]byte("tok"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, h.Hash("tok"))
	assert.Len(t, h.Hash("tok"), 64)
	assert.NotEqual(t, h.Hash("tok"), NewHasher([]byte("other")).Hash("tok"))
	assert.NotEqual(t, h.Hash("tok"), h.Hash("tok2"))
}

func TestRefreshToken_Expired(t *testing.T) {
	now := time.Unix(1000, 0)

	assert.True(t, (&RefreshToken{ExpiresAt: 999}).Expired(now))
	assert.False(t, (&RefreshToken{ExpiresAt: 1000}).Expired(now))
	assert.False(t, (&RefreshToken{ExpiresAt: 1001}).Expired(now))
}
