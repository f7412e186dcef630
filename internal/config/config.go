package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

type Config struct {
	OperatorID   model.ClientID // SIGNALGATE_OPERATOR_ID (required)
	GatewayToken string         // SIGNALGATE_GATEWAY_TOKEN (required; also the NATS token)

	HTTPAddr    string // SIGNALGATE_HTTP_ADDR (default ":8080")
	GRPCAddr    string // SIGNALGATE_GRPC_ADDR (default ":9090")
	NATSURL     string // SIGNALGATE_NATS_URL (optional, empty = log gateway, no events)
	DatabaseURL string // SIGNALGATE_DATABASE_URL (optional, empty = in-memory settings)
	AuthToken   string // SIGNALGATE_AUTH_TOKEN (optional, empty = auth disabled)

	// Expiry settings
	PendingTTL    time.Duration // SIGNALGATE_PENDING_TTL (default 0 = disabled)
	SweepInterval time.Duration // SIGNALGATE_SWEEP_INTERVAL (default 1m)

	// Snapshot export settings
	SnapshotInterval   time.Duration // SIGNALGATE_SNAPSHOT_INTERVAL (default 0 = disabled)
	SnapshotS3Bucket   string        // SIGNALGATE_SNAPSHOT_S3_BUCKET (enables S3 when set)
	SnapshotS3Endpoint string        // SIGNALGATE_SNAPSHOT_S3_ENDPOINT (custom endpoint for MinIO)
	SnapshotS3Region   string        // SIGNALGATE_SNAPSHOT_S3_REGION (default "us-east-1")
	SnapshotS3Key      string        // SIGNALGATE_SNAPSHOT_S3_KEY (default "signalgate/snapshot.jsonl")
}

// File is the optional TOML file named by SIGNALGATE_CONFIG. It only carries
// non-secret settings; environment variables override every field.
type File struct {
	HTTPAddr      string `toml:"http_addr"`
	GRPCAddr      string `toml:"grpc_addr"`
	NATSURL       string `toml:"nats_url"`
	PendingTTL    string `toml:"pending_ttl"`
	SweepInterval string `toml:"sweep_interval"`

	Snapshot struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
	} `toml:"snapshot"`
}

func Load() (*Config, error) {
	f, err := loadFile(os.Getenv("SIGNALGATE_CONFIG"))
	if err != nil {
		return nil, err
	}

	c := &Config{
		GatewayToken:       os.Getenv("SIGNALGATE_GATEWAY_TOKEN"),
		HTTPAddr:           envOrDefault("SIGNALGATE_HTTP_ADDR", orDefault(f.HTTPAddr, ":8080")),
		GRPCAddr:           envOrDefault("SIGNALGATE_GRPC_ADDR", orDefault(f.GRPCAddr, ":9090")),
		NATSURL:            envOrDefault("SIGNALGATE_NATS_URL", f.NATSURL),
		DatabaseURL:        os.Getenv("SIGNALGATE_DATABASE_URL"),
		AuthToken:          os.Getenv("SIGNALGATE_AUTH_TOKEN"),
		SnapshotS3Bucket:   envOrDefault("SIGNALGATE_SNAPSHOT_S3_BUCKET", f.Snapshot.S3Bucket),
		SnapshotS3Endpoint: envOrDefault("SIGNALGATE_SNAPSHOT_S3_ENDPOINT", f.Snapshot.S3Endpoint),
		SnapshotS3Region:   envOrDefault("SIGNALGATE_SNAPSHOT_S3_REGION", orDefault(f.Snapshot.S3Region, "us-east-1")),
		SnapshotS3Key:      envOrDefault("SIGNALGATE_SNAPSHOT_S3_KEY", orDefault(f.Snapshot.S3Key, "signalgate/snapshot.jsonl")),
	}

	opStr := os.Getenv("SIGNALGATE_OPERATOR_ID")
	if opStr == "" {
		return nil, fmt.Errorf("SIGNALGATE_OPERATOR_ID is required")
	}
	op, err := model.ParseClientID(opStr)
	if err != nil {
		return nil, fmt.Errorf("SIGNALGATE_OPERATOR_ID: %w", err)
	}
	if op == 0 {
		return nil, fmt.Errorf("SIGNALGATE_OPERATOR_ID must be non-zero")
	}
	c.OperatorID = op

	if c.GatewayToken == "" {
		return nil, fmt.Errorf("SIGNALGATE_GATEWAY_TOKEN is required")
	}

	if c.PendingTTL, err = envDuration("SIGNALGATE_PENDING_TTL", orDefault(f.PendingTTL, "0s")); err != nil {
		return nil, err
	}
	if c.SweepInterval, err = envDuration("SIGNALGATE_SWEEP_INTERVAL", orDefault(f.SweepInterval, "1m")); err != nil {
		return nil, err
	}
	if c.SnapshotInterval, err = envDuration("SIGNALGATE_SNAPSHOT_INTERVAL", orDefault(f.Snapshot.Interval, "0s")); err != nil {
		return nil, err
	}
	if c.PendingTTL < 0 || c.SweepInterval < 0 || c.SnapshotInterval < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}

	return c, nil
}

func loadFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("SIGNALGATE_CONFIG %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("SIGNALGATE_CONFIG %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return f, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
