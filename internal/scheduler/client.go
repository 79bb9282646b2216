package scheduler

import (
	"context"
	"time"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/redisconn"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	defaultQueue       = "default"
	rescoreMaxRetry    = 3
	rescoreTaskTimeout = 30 * time.Minute
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueLeadRescore schedules a stale rescoring run and returns the task id.
// uuid.Nil targets every tenant.
func (c *Client) EnqueueLeadRescore(ctx context.Context, tenantID uuid.UUID, staleBefore time.Time, limit int) (string, error) {
	payload := LeadRescorePayload{StaleBefore: staleBefore.UTC(), Limit: limit}
	if tenantID != uuid.Nil {
		payload.TenantID = tenantID.String()
	}

	task, err := NewLeadRescoreTask(payload)
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(rescoreMaxRetry),
		asynq.Timeout(rescoreTaskTimeout),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return defaultQueue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redisconn.Options(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
