package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rdb, err := Connect(ctx, mr.Addr())
	require.NoError(t, err)
	defer rdb.Close()
	assert.NoError(t, rdb.Set(ctx, "k", "v", 0).Err())

	urlClient, err := Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer urlClient.Close()
	got, err := urlClient.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectFailures(t *testing.T) {
	ctx := context.Background()

	_, err := Connect(ctx, "")
	assert.Error(t, err)

	_, err = Connect(ctx, "redis://%zz")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = Connect(ctx, addr)
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	InitRedis(mr.Addr())
	require.NotNil(t, GetClient())
	_ = GetClient().Close()

	mr.Close()
	InitRedis(mr.Addr())
	assert.Nil(t, GetClient())
}
