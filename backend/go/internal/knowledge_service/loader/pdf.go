package loader

import (
	"bytes"
	"context"

	"github.com/ledongthuc/pdf"
)

// PdfLoader 提取 PDF 文件的纯文本。旅行指南 PDF 里的图片和排版
// 信息对知识库没有用处，只取文字。
type PdfLoader struct{}

// NewPdfLoader 创建一个新的 PdfLoader。
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load 读取一个 PDF 文件并返回其全部文本。
func (l *PdfLoader) Load(ctx context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
