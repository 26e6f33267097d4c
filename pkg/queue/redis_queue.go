package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NotificationQueue Redis通知队列实现
// 注册确认邮件等旁路副作用在响应提交后入队，由独立worker投递
type NotificationQueue struct {
	client *redis.Client
	prefix string
}

// NotificationMessage 队列中的通知消息
type NotificationMessage struct {
	VisitorID        string `json:"visitor_id"`
	TenantID         uint   `json:"tenant_id"`
	EventID          uint   `json:"event_id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	RegistrationCode string `json:"registration_code"`
	Category         string `json:"category"`
	QRCodeURL        string `json:"qr_code_url"`
	Attempts         int    `json:"attempts"` // 已投递次数
	Created          int64  `json:"created"`
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewNotificationQueue 创建通知队列实例
func NewNotificationQueue(config *Config) *NotificationQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "eventhouse:notify"
	}

	return &NotificationQueue{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (q *NotificationQueue) Close() error {
	return q.client.Close()
}

// Ping 测试Redis连接
func (q *NotificationQueue) Ping() error {
	ctx := context.Background()
	return q.client.Ping(ctx).Err()
}

// GetClient 暴露底层客户端（实时看板等场景使用）
func (q *NotificationQueue) GetClient() *redis.Client {
	return q.client
}

func (q *NotificationQueue) pendingKey() string {
	return q.prefix + ":pending"
}

func (q *NotificationQueue) failedKey() string {
	return q.prefix + ":failed"
}

// Enqueue 将通知消息加入队列
func (q *NotificationQueue) Enqueue(msg *NotificationMessage) error {
	ctx := context.Background()

	if msg.Created == 0 {
		msg.Created = time.Now().Unix()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化通知消息失败: %v", err)
	}

	// 左侧入队
	if err := q.client.LPush(ctx, q.pendingKey(), data).Err(); err != nil {
		return fmt.Errorf("通知入队失败: %v", err)
	}

	return nil
}

// Dequeue 阻塞式出队，超时返回nil
func (q *NotificationQueue) Dequeue(timeout time.Duration) (*NotificationMessage, error) {
	ctx := context.Background()

	result, err := q.client.BRPop(ctx, timeout, q.pendingKey()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	// BRPop返回 [key, value]
	if len(result) < 2 {
		return nil, fmt.Errorf("队列返回格式异常")
	}

	var msg NotificationMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("反序列化通知消息失败: %v", err)
	}

	return &msg, nil
}

// MarkFailed 投递失败的消息转入失败队列，等待重试
func (q *NotificationQueue) MarkFailed(msg *NotificationMessage) error {
	ctx := context.Background()

	msg.Attempts++
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return q.client.LPush(ctx, q.failedKey(), data).Err()
}

// RequeueFailed 将失败队列的消息批量移回待投递队列，返回移动数量
func (q *NotificationQueue) RequeueFailed(maxAttempts int) (int, error) {
	ctx := context.Background()
	moved := 0

	for {
		raw, err := q.client.RPop(ctx, q.failedKey()).Result()
		if err != nil {
			if err == redis.Nil {
				break
			}
			return moved, err
		}

		var msg NotificationMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			// 消息损坏，丢弃
			continue
		}

		// 超过最大重试次数的消息不再重试
		if msg.Attempts >= maxAttempts {
			continue
		}

		data, _ := json.Marshal(&msg)
		if err := q.client.LPush(ctx, q.pendingKey(), data).Err(); err != nil {
			return moved, err
		}
		moved++
	}

	return moved, nil
}

// PendingCount 待投递消息数量
func (q *NotificationQueue) PendingCount() (int64, error) {
	ctx := context.Background()
	return q.client.LLen(ctx, q.pendingKey()).Result()
}
