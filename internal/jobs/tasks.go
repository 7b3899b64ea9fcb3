package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"

	// TaskCarryOver closes a leave year for one company.
	TaskCarryOver = "leave:carry_over"
)

// CarryOverPayload describes one carry-over run. Year 0 means the year that ended before the
// task is handled, which is what the Jan 1 schedule relies on.
type CarryOverPayload struct {
	CompanyID string `json:"company_id"`
	Year      int    `json:"year,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

func NewCarryOverTask(payload CarryOverPayload) (*asynq.Task, error) {
	if payload.CompanyID == "" {
		return nil, fmt.Errorf("carry-over task: company id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCarryOver, body, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueCarryOver queues a carry-over run and returns the task id. A run for the same company and
// year that is still queued is reported as ErrTaskIDConflict by asynq.
func (c *Client) EnqueueCarryOver(ctx context.Context, companyID string, year int, actorID string) (string, error) {
	task, err := NewCarryOverTask(CarryOverPayload{CompanyID: companyID, Year: year, ActorID: actorID})
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.TaskID(CarryOverTaskID(companyID, year)),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func CarryOverTaskID(companyID string, year int) string {
	return fmt.Sprintf("carry-over:%s:%d", companyID, year)
}
