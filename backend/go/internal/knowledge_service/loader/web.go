package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// WebLoader 抓取网页并把 HTML 转成 Markdown 文本。转 Markdown
// 而不是裸文本是为了保留标题结构，切分器按标题对齐块边界。
type WebLoader struct {
	client *http.Client
}

// NewWebLoader 创建一个新的 WebLoader。
func NewWebLoader() *WebLoader {
	return &WebLoader{client: http.DefaultClient}
}

// Load 抓取 URL 指向的页面并返回其 Markdown 文本。
func (l *WebLoader) Load(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("抓取 %s 返回状态码 %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return htmltomarkdown.ConvertString(string(body))
}
