package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mtogo/internal/pkg/redis"
	"mtogo/internal/service/order/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const claimScriptName = "claim_status_jobs"

// StatusJob 是延迟任务在队列中的负载
type StatusJob struct {
	JobID   string `json:"jobId"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// ClaimedJob 是被当前 worker 租用的任务。Member 是原始成员，用于确认。
type ClaimedJob struct {
	Member string
	Job    StatusJob
	Err    error // 负载无法解析时非空
}

// SchedulerRedisAdapter 用两个有序集合实现持久化的延迟任务队列：
// ready 按到期时间排序，processing 按租约截止时间排序。
// 两个 key 共享同一个 hash tag，集群模式下落在同一个 slot。
type SchedulerRedisAdapter struct {
	redisClient   *redis.Client
	readyKey      string
	processingKey string
	now           func() time.Time
}

// NewSchedulerRedisAdapter 在创建时加载领取任务的 Lua 脚本。
func NewSchedulerRedisAdapter(redisClient *redis.Client, keyPrefix string) (*SchedulerRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(claimScriptName, claimScript); err != nil {
		return nil, fmt.Errorf("failed to load claim script: %w", err)
	}
	return &SchedulerRedisAdapter{
		redisClient:   redisClient,
		readyKey:      fmt.Sprintf("{%s}:ready", keyPrefix),
		processingKey: fmt.Sprintf("{%s}:processing", keyPrefix),
		now:           time.Now,
	}, nil
}

// ScheduleStatusTransition 实现了 port.StatusScheduler，任务在 delay 之后到期。
func (a *SchedulerRedisAdapter) ScheduleStatusTransition(ctx context.Context, orderID string, status domain.Status, delay time.Duration) error {
	payload, err := json.Marshal(StatusJob{
		JobID:   uuid.NewString(),
		OrderID: orderID,
		Status:  string(status),
	})
	if err != nil {
		return fmt.Errorf("marshal status job: %w", err)
	}

	dueAt := a.now().Add(delay).UnixMilli()
	err = a.redisClient.GetClient().ZAdd(ctx, a.readyKey, goredis.Z{Score: float64(dueAt), Member: string(payload)}).Err()
	if err != nil {
		return fmt.Errorf("schedule %s for order %s: %w", status, orderID, err)
	}
	return nil
}

// Claim 原子地回收过期租约并领取至多 limit 个到期任务
func (a *SchedulerRedisAdapter) Claim(ctx context.Context, limit int, lease time.Duration) ([]ClaimedJob, error) {
	now := a.now()
	result, err := a.redisClient.RunScript(ctx, claimScriptName,
		[]string{a.readyKey, a.processingKey},
		now.UnixMilli(), now.Add(lease).UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim status jobs: %w", err)
	}

	members, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type from claim script: %T", result)
	}

	jobs := make([]ClaimedJob, 0, len(members))
	for _, m := range members {
		member, ok := m.(string)
		if !ok {
			continue
		}
		job := ClaimedJob{Member: member}
		if err := json.Unmarshal([]byte(member), &job.Job); err != nil {
			job.Err = fmt.Errorf("decode status job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Ack 确认任务完成，从 processing 集合中移除
func (a *SchedulerRedisAdapter) Ack(ctx context.Context, member string) error {
	if err := a.redisClient.GetClient().ZRem(ctx, a.processingKey, member).Err(); err != nil {
		return fmt.Errorf("ack status job: %w", err)
	}
	return nil
}

var claimScript = `
-- KEYS[1]: 待执行任务集合, 分数为到期时间 (ms)
-- KEYS[2]: 执行中任务集合, 分数为租约截止时间 (ms)
-- ARGV[1]: 当前时间 (ms)
-- ARGV[2]: 新租约截止时间 (ms)
-- ARGV[3]: 单次最多领取的任务数

-- 1. 租约过期的任务放回待执行集合 (worker 崩溃或处理失败)
local expired = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1])
for _, member in ipairs(expired) do
    redis.call('ZREM', KEYS[2], member)
    redis.call('ZADD', KEYS[1], ARGV[1], member)
end

-- 2. 领取到期任务并加上租约
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[3]))
for _, member in ipairs(due) do
    redis.call('ZREM', KEYS[1], member)
    redis.call('ZADD', KEYS[2], ARGV[2], member)
end

return due
`
