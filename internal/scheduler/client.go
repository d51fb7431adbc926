package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agency_crm_backend/platform/cache"
	"agency_crm_backend/platform/config"

	"cloud.google.com/go/civil"
	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

// DripEnqueuer schedules drip messages for delivery.
type DripEnqueuer interface {
	EnqueueDripSend(ctx context.Context, payload DripSendPayload, runAt time.Time) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
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

// EnqueueDripSend schedules payload for runAt. A task already queued for the
// same lead, step and date is left untouched.
func (c *Client) EnqueueDripSend(ctx context.Context, payload DripSendPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	sendDate, err := civil.ParseDate(payload.SendDate)
	if err != nil {
		return fmt.Errorf("invalid send date: %w", err)
	}

	task, err := NewDripSendTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(DripTaskID(payload.LeadID, payload.StepID, sendDate)),
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.MaxRetry(5),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := cache.ParseRedisOptions(redisURL, tlsInsecure)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}
