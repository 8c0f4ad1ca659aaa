package loader

import (
	"context"
	"strings"

	"github.com/unidoc/unioffice/v2/document"
)

// DocxLoader 提取 Word (.docx) 文件的纯文本。
type DocxLoader struct{}

// NewDocxLoader 创建一个新的 DocxLoader。
func NewDocxLoader() *DocxLoader {
	return &DocxLoader{}
}

// Load 读取一个 .docx 文件，按段落拼接其全部文本。
func (l *DocxLoader) Load(ctx context.Context, path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			textBuilder.WriteString(r.Text())
		}
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}
