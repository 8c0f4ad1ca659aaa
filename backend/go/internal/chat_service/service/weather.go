package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"Travel_Companion/backend/go/internal/config"
	pkghttp "Travel_Companion/backend/go/pkg/http"
)

// WeatherClient 在请求上下文缺少天气字段时向上游天气服务补查。
// 出站请求走带熔断的 HTTP 客户端：天气服务抖动时直接放弃补查，
// 不拖慢对话链路。
type WeatherClient struct {
	baseURL string
	apiKey  string
	client  *pkghttp.Client
}

// NewWeatherClient 创建天气查询客户端。cfg.Enabled 为 false 时
// 返回 (nil, nil)，调用方据此跳过补查。
func NewWeatherClient(cfg config.WeatherConfig, breakerCfg config.CircuitBreakerConfig) (*WeatherClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := pkghttp.NewClient(breakerCfg)
	if err != nil {
		return nil, err
	}
	return &WeatherClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  client,
	}, nil
}

// CurrentCondition 返回指定地点的天气概述，例如 "light rain, 18°C"。
func (w *WeatherClient) CurrentCondition(ctx context.Context, location string) (string, error) {
	endpoint := fmt.Sprintf("%s/data/2.5/weather?q=%s&appid=%s&units=metric",
		w.baseURL, url.QueryEscape(location), url.QueryEscape(w.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("构造天气请求失败: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("天气查询失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("天气服务返回状态码 %d", resp.StatusCode)
	}

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("解析天气响应失败: %w", err)
	}
	if len(payload.Weather) == 0 {
		return "", fmt.Errorf("天气响应缺少天气描述")
	}

	return fmt.Sprintf("%s, %.0f°C", payload.Weather[0].Description, payload.Main.Temp), nil
}
