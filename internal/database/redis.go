package database

import (
	"eventhouse/pkg/config"
	"eventhouse/pkg/queue"
	"sync"
)

var (
	notifyQueueInstance *queue.NotificationQueue
	notifyQueueOnce     sync.Once
)

// GetNotificationQueue 获取通知队列的单例实例
func GetNotificationQueue() *queue.NotificationQueue {
	notifyQueueOnce.Do(func() {
		cfg := config.GetConfig()
		notifyQueueInstance = queue.NewNotificationQueue(&queue.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return notifyQueueInstance
}

// CloseNotificationQueue 关闭Redis连接
func CloseNotificationQueue() error {
	if notifyQueueInstance != nil {
		return notifyQueueInstance.Close()
	}
	return nil
}
