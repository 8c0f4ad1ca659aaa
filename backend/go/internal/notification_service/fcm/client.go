package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"Travel_Companion/backend/go/internal/config"
)

// Client 是对 Firebase Cloud Messaging 客户端的薄封装。
// dryRun 开启时所有下发走 FCM 的校验通道，不会真正触达设备。
type Client struct {
	messenger *messaging.Client
	dryRun    bool
}

// NewClient 根据配置初始化 Firebase 应用并返回 messaging 客户端封装。
func NewClient(ctx context.Context, cfg config.FirebaseConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("初始化 Firebase 应用失败: %w", err)
	}

	messenger, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建 FCM messaging 客户端失败: %w", err)
	}

	return &Client{
		messenger: messenger,
		dryRun:    cfg.DryRun,
	}, nil
}

// Send 下发单条消息（单设备或主题），返回 FCM 消息 ID。
func (c *Client) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	if c.dryRun {
		return c.messenger.SendDryRun(ctx, msg)
	}
	return c.messenger.Send(ctx, msg)
}

// SendEachForMulticast 向多个设备下发同一条消息，返回逐设备的结果。
func (c *Client) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	if c.dryRun {
		return c.messenger.SendEachForMulticastDryRun(ctx, msg)
	}
	return c.messenger.SendEachForMulticast(ctx, msg)
}
