package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

const persistInterval = 5 * time.Minute

// Sender 抽象了 FCM 下发通道，便于测试时替换。
type Sender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// TokenResolver 把用户 ID 解析为其登记的设备令牌列表。
// user_service 的 Service 满足该接口。
type TokenResolver interface {
	DeviceTokens(userID uint) ([]string, error)
}

// Service 封装了推送服务的业务逻辑：单发、多播、主题下发，
// 外加基于布隆过滤器的重复拦截。
type Service struct {
	sender   Sender
	dedupe   *Deduper
	resolver TokenResolver
	logger   *logger.Logger

	persistStop chan struct{}
}

// NewService 创建一个新的推送 Service。resolver 可以为 nil，
// 此时 Kafka 事件里只认显式携带的令牌。
func NewService(sender Sender, dedupe *Deduper, resolver TokenResolver, logger *logger.Logger) *Service {
	return &Service{
		sender:      sender,
		dedupe:      dedupe,
		resolver:    resolver,
		logger:      logger,
		persistStop: make(chan struct{}),
	}
}

// StartPersistLoop 启动一个后台协程，定期把去重状态落盘。
func (s *Service) StartPersistLoop() {
	go func() {
		ticker := time.NewTicker(persistInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.dedupe.Persist(); err != nil {
					s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("去重状态落盘失败")
				}
			case <-s.persistStop:
				return
			}
		}
	}()
}

// Close 停止后台落盘协程并做最后一次持久化。
func (s *Service) Close() error {
	close(s.persistStop)
	return s.dedupe.Persist()
}

// Push 下发一条通知。Token 为空时按主题下发。重复的通知被静默拦截，
// 结果中的 Error 字段会说明原因。
func (s *Service) Push(ctx context.Context, n *models.PushNotification) (*models.PushResult, error) {
	target := n.Token
	if target == "" {
		target = "topic:" + n.Topic
	}
	if n.Token == "" && n.Topic == "" {
		return nil, errors.New("token 与 topic 至少要填一个")
	}

	if s.dedupe.Seen(target, n.Title, n.Body) {
		s.logger.WithPayload(map[string]interface{}{"target": target}).Info("重复通知已拦截")
		return &models.PushResult{Token: n.Token, Success: false, Error: "duplicate suppressed"}, nil
	}

	msg := &messaging.Message{
		Token: n.Token,
		Topic: n.Topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"target": target}).Error("❌ 推送下发失败")
		return &models.PushResult{Token: n.Token, Success: false, Error: err.Error()}, nil
	}

	s.dedupe.Mark(target, n.Title, n.Body)
	return &models.PushResult{Token: n.Token, MessageID: id, Success: true}, nil
}

// PushMulticast 向多个设备下发同一条通知，逐设备汇总成功与失败。
// 已发过的设备直接计入失败并标注拦截原因。
func (s *Service) PushMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*models.MulticastSummary, error) {
	if len(tokens) == 0 {
		return nil, errors.New("令牌列表不能为空")
	}

	summary := &models.MulticastSummary{}
	var fresh []string
	for _, token := range tokens {
		if s.dedupe.Seen(token, title, body) {
			summary.FailureCount++
			summary.Results = append(summary.Results, models.PushResult{
				Token:   token,
				Success: false,
				Error:   "duplicate suppressed",
			})
			continue
		}
		fresh = append(fresh, token)
	}

	if len(fresh) == 0 {
		return summary, nil
	}

	batch, err := s.sender.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens: fresh,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("❌ 多播推送下发失败")
		return nil, err
	}

	for i, resp := range batch.Responses {
		result := models.PushResult{Token: fresh[i], Success: resp.Success}
		if resp.Success {
			result.MessageID = resp.MessageID
			s.dedupe.Mark(fresh[i], title, body)
			summary.SuccessCount++
		} else {
			if resp.Error != nil {
				result.Error = resp.Error.Error()
			}
			summary.FailureCount++
		}
		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

// HandleEvent 处理其他服务经 Kafka 发来的异步推送请求。
func (s *Service) HandleEvent(msg kafka.Message) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("解析通知事件失败")
		return err
	}

	ctx := context.Background()

	if event.Topic != "" {
		_, err := s.Push(ctx, &models.PushNotification{
			Topic: event.Topic,
			Title: event.Title,
			Body:  event.Body,
			Data:  event.Data,
		})
		return err
	}

	tokens := event.Tokens
	if len(tokens) == 0 && event.UserID != "" && s.resolver != nil {
		id, err := strconv.ParseUint(event.UserID, 10, 32)
		if err != nil {
			s.logger.WithPayload(map[string]interface{}{"userID": event.UserID}).Warn("通知事件携带了无效的用户 ID")
			return nil
		}
		tokens, err = s.resolver.DeviceTokens(uint(id))
		if err != nil {
			s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"userID": event.UserID}).Error("解析设备令牌失败")
			return err
		}
	}
	if len(tokens) == 0 {
		s.logger.Warn("通知事件没有任何可投递的目标，已丢弃")
		return nil
	}

	summary, err := s.PushMulticast(ctx, tokens, event.Title, event.Body, event.Data)
	if err != nil {
		return err
	}

	s.logger.WithPayload(map[string]interface{}{
		"success": summary.SuccessCount,
		"failure": summary.FailureCount,
	}).Info("✅ 异步通知事件处理完成")
	return nil
}
