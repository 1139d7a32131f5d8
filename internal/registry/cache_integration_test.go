//go:build integration

package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/ledger/ledgertest"
	platformredis "credchain/internal/platform/redis"
	"credchain/pkg/testutil/containers"
)

func TestDisplayNameReadThroughCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	cache, err := platformredis.New(rc.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	gw := ledgertest.New()
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	gw.SeedUniversity(addr, "MIT")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(gw,
		WithLogger(logger),
		WithNameCache(cache, time.Minute))

	// First lookup misses the cache and hits the ledger.
	name, err := svc.DisplayName(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "MIT", name)
	assert.Equal(t, 1, gw.NameLookups())

	// Subsequent lookups are served from Redis.
	for i := 0; i < 5; i++ {
		name, err = svc.DisplayName(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, "MIT", name)
	}
	assert.Equal(t, 1, gw.NameLookups())
}

func TestAddInvalidatesCachedName(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	cache, err := platformredis.New(rc.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	gw := ledgertest.New()
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	gw.SeedUniversity(addr, "MIT")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(gw,
		WithLogger(logger),
		WithNameCache(cache, time.Minute))

	name, err := svc.DisplayName(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "MIT", name)

	svc.invalidate(context.Background(), addr)

	// A fresh read must go back to the ledger.
	before := gw.NameLookups()
	name, err = svc.DisplayName(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, "MIT", name)
	assert.Equal(t, before+1, gw.NameLookups())
}
