// Package config reads the process configuration from the environment
// once at startup and builds the configured object store.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gulog/api/grpcserver"
	"gulog/infra/objstore"
	"gulog/infra/objstore/pebblestore"
	"gulog/infra/objstore/s3store"
)

const (
	BackendS3     = "s3"
	BackendPebble = "pebble"
)

type Config struct {
	Backend string
	S3      s3store.Config
	Pebble  pebblestore.Config

	GRPCAddr string
	// GRPCMaxMsgBytes bounds gRPC messages on the server; records larger
	// than this cannot be appended or read over the API.
	GRPCMaxMsgBytes int

	KafkaBrokers      []string
	AppendTopic       string
	WatermarkTopic    string
	WatermarkInterval time.Duration
}

func Load() Config {
	return Config{
		Backend: getenv("GULOG_BACKEND", BackendS3),
		S3: s3store.Config{
			Endpoint:     getenv("GULOG_S3_ENDPOINT", "http://127.0.0.1:9000"),
			Region:       getenv("GULOG_S3_REGION", "us-east-1"),
			AccessKey:    getenv("GULOG_S3_ACCESS_KEY", "admin"),
			SecretKey:    getenv("GULOG_S3_SECRET_KEY", "password"),
			Bucket:       getenv("GULOG_S3_BUCKET", "gulog-dev"),
			Prefix:       getenv("GULOG_S3_PREFIX", ""),
			PageSize:     getInt32("GULOG_S3_PAGE_SIZE", 1000),
			UsePathStyle: getBool("GULOG_S3_PATH_STYLE", true),
		},
		Pebble: pebblestore.Config{
			Dir:      getenv("GULOG_PEBBLE_DIR", "./wal_data"),
			PageSize: getInt("GULOG_PEBBLE_PAGE_SIZE", 1000),
		},
		GRPCAddr:          getenv("GULOG_GRPC_ADDR", ":50051"),
		GRPCMaxMsgBytes:   getInt("GULOG_GRPC_MAX_MSG_BYTES", grpcserver.DefaultMaxMessageSize),
		KafkaBrokers:      getList("GULOG_KAFKA_BROKERS"),
		AppendTopic:       getenv("GULOG_KAFKA_TOPIC", "gulog.appends"),
		WatermarkTopic:    getenv("GULOG_WATERMARK_TOPIC", "gulog.watermark"),
		WatermarkInterval: getDuration("GULOG_WATERMARK_INTERVAL", 5*time.Second),
	}
}

// OpenStore builds the store selected by cfg.Backend. The returned close
// function releases it.
func OpenStore(ctx context.Context, cfg Config) (objstore.Store, func() error, error) {
	switch cfg.Backend {
	case BackendS3:
		s, err := s3store.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case BackendPebble:
		s, err := pebblestore.Open(cfg.Pebble)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getInt32 falls back to def for values that are not positive or do not
// fit in an int32.
func getInt32(key string, def int32) int32 {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(v, 10, 32); err == nil && i > 0 {
			return int32(i)
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
