package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"agv-lift/internal/logger"
	"agv-lift/internal/types"
)

const connectRetries = 5

// Telemetry is a snapshot of one poll cycle. Unset fields are omitted.
type Telemetry struct {
	LineLeft     *bool    `json:"line-left,omitempty"`
	LineRight    *bool    `json:"line-right,omitempty"`
	DutyLeft     *int     `json:"duty-left,omitempty"`
	DutyRight    *int     `json:"duty-right,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	Zone         string   `json:"zone,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	TargetWeight *float64 `json:"target-weight,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

// fields flattens t into hash fields for HSET.
func (t Telemetry) fields() map[string]interface{} {
	f := map[string]interface{}{"telemetry:timestamp": t.Timestamp}
	if t.LineLeft != nil {
		f["line-left"] = *t.LineLeft
	}
	if t.LineRight != nil {
		f["line-right"] = *t.LineRight
	}
	if t.DutyLeft != nil {
		f["duty-left"] = *t.DutyLeft
	}
	if t.DutyRight != nil {
		f["duty-right"] = *t.DutyRight
	}
	if t.Distance != nil {
		f["distance"] = fmt.Sprintf("%.2f", *t.Distance)
	}
	if t.Zone != "" {
		f["zone"] = t.Zone
	}
	if t.Weight != nil {
		f["weight"] = fmt.Sprintf("%.2f", *t.Weight)
	}
	if t.TargetWeight != nil {
		f["target-weight"] = fmt.Sprintf("%.2f", *t.TargetWeight)
	}
	return f
}

// RedisClient publishes a controller's phase and telemetry to the hash
// named after the controller, with a notification on the channel of the
// same name.
type RedisClient struct {
	client     *redis.Client
	logger     *logger.Logger
	controller string
	run        string
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewRedisClient(addr, controller string, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		logger:     l,
		controller: controller,
		run:        uuid.NewString(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run identifies this process's run in the status hash.
func (r *RedisClient) Run() string {
	return r.run
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	ping := func() error {
		if err := r.client.Ping(r.ctx).Err(); err != nil {
			r.logger.Warnf("Redis connection failed: %v", err)
			return err
		}
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries)
	if err := backoff.Retry(ping, policy); err != nil {
		return fmt.Errorf("Redis connection failed: %w", err)
	}

	r.logger.Infof("Successfully connected to Redis (run %s)", r.run)
	return nil
}

func (r *RedisClient) PublishControllerState(state types.ControllerState) error {
	r.logger.Infof("Publishing %s state: %s", r.controller, state)
	timestamp := time.Now().Format(time.RFC3339)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, r.controller, "state", string(state))
	pipe.HSet(r.ctx, r.controller, "state:timestamp", timestamp)
	pipe.HSet(r.ctx, r.controller, "run", r.run)
	pipe.Publish(r.ctx, r.controller, "state")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish %s state: %v", r.controller, err)
		return err
	}
	return nil
}

func (r *RedisClient) PublishTelemetry(t Telemetry) error {
	if t.Timestamp == "" {
		t.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode telemetry: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, r.controller, t.fields())
	pipe.Publish(r.ctx, r.controller+":telemetry", payload)
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Debugf("Failed to publish telemetry: %v", err)
		return err
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()
	return r.client.Close()
}

// Discard is the publisher used when no Redis address is configured.
type Discard struct{}

func (Discard) PublishControllerState(types.ControllerState) error { return nil }
func (Discard) PublishTelemetry(Telemetry) error                  { return nil }
func (Discard) Close() error                                      { return nil }
