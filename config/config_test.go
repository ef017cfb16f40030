package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gulog/api/grpcserver"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, BackendS3, cfg.Backend)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.S3.Endpoint)
	assert.Equal(t, "gulog-dev", cfg.S3.Bucket)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.WatermarkInterval)
	assert.Equal(t, grpcserver.DefaultMaxMessageSize, cfg.GRPCMaxMsgBytes)
}

func TestLoad_S3PageSizeOutOfRange(t *testing.T) {
	for _, v := range []string{"5000000000", "2147483648", "-1", "0"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("GULOG_S3_PAGE_SIZE", v)
			assert.Equal(t, int32(1000), Load().S3.PageSize)
		})
	}

	t.Setenv("GULOG_S3_PAGE_SIZE", "2147483647")
	assert.Equal(t, int32(2147483647), Load().S3.PageSize)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GULOG_BACKEND", BackendPebble)
	t.Setenv("GULOG_S3_BUCKET", "prod-wal")
	t.Setenv("GULOG_S3_PAGE_SIZE", "50")
	t.Setenv("GULOG_S3_PATH_STYLE", "false")
	t.Setenv("GULOG_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("GULOG_WATERMARK_INTERVAL", "250ms")
	t.Setenv("GULOG_PEBBLE_PAGE_SIZE", "not-a-number")
	t.Setenv("GULOG_GRPC_MAX_MSG_BYTES", "1048576")

	cfg := Load()
	assert.Equal(t, BackendPebble, cfg.Backend)
	assert.Equal(t, "prod-wal", cfg.S3.Bucket)
	assert.Equal(t, int32(50), cfg.S3.PageSize)
	assert.False(t, cfg.S3.UsePathStyle)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250*time.Millisecond, cfg.WatermarkInterval)
	assert.Equal(t, 1000, cfg.Pebble.PageSize)
	assert.Equal(t, 1<<20, cfg.GRPCMaxMsgBytes)
}

func TestOpenStore_Pebble(t *testing.T) {
	cfg := Load()
	cfg.Backend = BackendPebble
	cfg.Pebble.Dir = t.TempDir()

	store, closeFn, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Put(context.Background(), "k", []byte("v")))
	got, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := Load()
	cfg.Backend = "tape"
	_, _, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}
