package loader

import (
	"context"
	"os"
)

// TextLoader 处理纯文本和 Markdown 文件。Markdown 语法保留原样，
// 切分器会利用标题行对齐块边界。
type TextLoader struct{}

// NewTextLoader 创建一个新的 TextLoader。
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load 读取整个文件内容。
func (l *TextLoader) Load(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
