package services

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"eventhouse/pkg/config"
	"eventhouse/pkg/logger"
	"eventhouse/pkg/queue"

	"github.com/robfig/cron/v3"
)

// Notifier 确认通知发送接口
type Notifier interface {
	SendRegistrationConfirmation(msg *queue.NotificationMessage) error
}

// NotificationService 旁路通知服务
// 报名确认邮件在响应提交后入队，由worker尽力投递；
// 投递失败只记录日志并转入失败队列，由定时任务重试，绝不影响报名响应
type NotificationService struct {
	queue    *queue.NotificationQueue
	notifier Notifier
	cron     *cron.Cron

	stopCh chan struct{}
	wg     sync.WaitGroup
}

const notifyMaxAttempts = 3

func NewNotificationService(q *queue.NotificationQueue, notifier Notifier) *NotificationService {
	return &NotificationService{
		queue:    q,
		notifier: notifier,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

// EnqueueConfirmation 报名确认通知入队（调用方在响应提交后调用）
func (s *NotificationService) EnqueueConfirmation(msg *queue.NotificationMessage) {
	if err := s.queue.Enqueue(msg); err != nil {
		// 入队失败只记录，报名流程不感知
		logger.GetLogger().Errorf("通知入队失败 visitor=%s: %v", msg.VisitorID, err)
	}
}

// Start 启动投递worker与失败重试定时任务
func (s *NotificationService) Start() error {
	s.wg.Add(1)
	go s.deliverLoop()

	// 每分钟把失败队列的消息移回待投递队列
	_, err := s.cron.AddFunc("@every 1m", func() {
		moved, err := s.queue.RequeueFailed(notifyMaxAttempts)
		if err != nil {
			logger.GetLogger().Errorf("失败通知重试调度出错: %v", err)
			return
		}
		if moved > 0 {
			logger.GetLogger().Infof("重新入队 %d 条失败通知", moved)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()

	logger.GetLogger().Info("Notification service started")
	return nil
}

// Stop 停止worker与定时任务
func (s *NotificationService) Stop() {
	close(s.stopCh)
	s.cron.Stop()
	s.wg.Wait()
}

// deliverLoop 投递主循环
func (s *NotificationService) deliverLoop() {
	defer s.wg.Done()
	log := logger.GetLogger()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		msg, err := s.queue.Dequeue(5 * time.Second)
		if err != nil {
			log.Errorf("通知出队失败: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := s.notifier.SendRegistrationConfirmation(msg); err != nil {
			log.Errorf("发送报名确认失败 visitor=%s email=%s: %v", msg.VisitorID, msg.Email, err)
			if err := s.queue.MarkFailed(msg); err != nil {
				log.Errorf("通知转入失败队列出错: %v", err)
			}
			continue
		}

		log.Infof("报名确认已发送 visitor=%s email=%s", msg.VisitorID, msg.Email)
	}
}

// ========== SMTP实现 ==========

// SMTPNotifier 通过SMTP发送报名确认邮件
type SMTPNotifier struct {
	cfg *config.EmailConfig
	app *config.AppConfig
}

func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{cfg: &cfg.Email, app: &cfg.App}
}

// SendRegistrationConfirmation 发送确认邮件，正文附二维码下载链接
func (n *SMTPNotifier) SendRegistrationConfirmation(msg *queue.NotificationMessage) error {
	if !n.cfg.Enabled {
		// 未配置SMTP时按发送成功处理，便于本地开发
		logger.GetLogger().Debugf("邮件发送已关闭，跳过 visitor=%s", msg.VisitorID)
		return nil
	}

	qrLink := msg.QRCodeURL
	if n.app.PublicBaseURL != "" {
		qrLink = strings.TrimRight(n.app.PublicBaseURL, "/") + msg.QRCodeURL
	}

	body := fmt.Sprintf(
		"%s 您好：\r\n\r\n您已成功报名。\r\n注册码：%s\r\n类别：%s\r\n\r\n入场二维码：%s\r\n\r\n%s",
		msg.Name, msg.RegistrationCode, msg.Category, qrLink, n.app.Name,
	)

	var headers strings.Builder
	headers.WriteString("From: " + n.cfg.From + "\r\n")
	headers.WriteString("To: " + msg.Email + "\r\n")
	headers.WriteString("Subject: Registration Confirmation - " + n.app.Name + "\r\n")
	headers.WriteString("MIME-Version: 1.0\r\n")
	headers.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	headers.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	return smtp.SendMail(addr, auth, n.cfg.From, []string{msg.Email}, []byte(headers.String()+body))
}
