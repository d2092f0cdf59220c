package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Standard values
	cursor := Cursor{
		Date:      time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "2f1b9c1e-7c3a-4c55-9a55-0b1f0d7e2a10",
	}

	token := EncodeToken(cursor)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, cursor, decoded)

	// Current time survives with full precision
	now := time.Now().UTC()
	decoded, err = DecodeToken(EncodeToken(Cursor{Date: now, CreatedAt: now, ID: "x"}))
	require.NoError(t, err)
	assert.True(t, now.Equal(decoded.Date))
	assert.True(t, now.Equal(decoded.CreatedAt))
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	_, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	_, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("notadate|2023-05-15T14:30:45Z|id")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "date parse")

	_, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|nottime|id")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "created_at parse")

	_, err = DecodeToken(base64.URLEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|2023-05-15T00:00:00Z|")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 5, ClampLimit(5))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}
