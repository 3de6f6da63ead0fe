package redisstore

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/pkg/config"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/docstoretest"
)

func TestConformance(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Client {
		srv := miniredis.RunT(t)
		return New(redis.NewClient(&redis.Options{Addr: srv.Addr()}), "test", nil)
	})
}

func TestLayoutUsesNamespacedHashes(t *testing.T) {
	srv := miniredis.RunT(t)
	s := New(redis.NewClient(&redis.Options{Addr: srv.Addr()}), "campus", nil)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), docstore.MustPath("users/S-1"), map[string]any{"fullName": "A"}))

	assert.True(t, srv.Exists("campus:users"))
	assert.JSONEq(t, `{"fullName":"A"}`, srv.HGet("campus:users", "S-1"))
}

func TestDial(t *testing.T) {
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	s, err := Dial(config.RedisConfig{Host: srv.Host(), Port: port}, "", nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "redis", s.Driver())

	srv.Close()
	_, err = Dial(config.RedisConfig{Host: "127.0.0.1", Port: port}, "", nil)
	assert.Error(t, err)
}
