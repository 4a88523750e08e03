package store

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisKV(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	ctx := context.Background()
	kv := NewRedis(client, "leetprob")

	require.NoError(t, kv.Set(ctx, map[string][]byte{
		KeyLastUser:    []byte(`"alice"`),
		KeySubmissions: []byte(`[]`),
	}))
	require.True(t, mini.Exists("leetprob:"+KeyLastUser))

	got, err := kv.Get(ctx, KeyLastUser, KeySubmissions, KeyProblemCache)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, `"alice"`, string(got[KeyLastUser]))

	require.NoError(t, kv.Remove(ctx, KeySubmissions))
	got, err = kv.Get(ctx, KeySubmissions)
	require.NoError(t, err)
	require.Empty(t, got)

	var user string
	ok, err := GetJSON(ctx, kv, KeyLastUser, &user)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", user)
}

func TestConnectRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client, err := ConnectRedis(context.Background(), "redis://"+mini.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = ConnectRedis(context.Background(), "")
	require.Error(t, err)
}
