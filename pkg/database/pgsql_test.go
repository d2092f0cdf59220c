package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPgxPool_EmptyURL(t *testing.T) {
	_, err := NewPgxPool(context.Background(), "", true, time.Second)
	assert.Error(t, err)
}

func TestPingWithBackoff_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := PingWithBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 10*time.Second)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPingWithBackoff_GivesUpOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PingWithBackoff(ctx, func(context.Context) error {
		return errors.New("connection refused")
	}, time.Minute)

	assert.Error(t, err)
}
