package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Loader 从一种文件格式中提取纯文本。
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// ForFile 根据文件内容嗅探选择合适的 Loader，嗅探不出时回退到
// 扩展名判断。不认识的格式按纯文本处理。
func ForFile(path string) (Loader, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("嗅探文件类型失败: %w", err)
	}

	switch {
	case mtype.Is("application/pdf"):
		return NewPdfLoader(), nil
	case mtype.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return NewDocxLoader(), nil
	case mtype.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return NewXlsxLoader(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPdfLoader(), nil
	case ".docx":
		return NewDocxLoader(), nil
	case ".xlsx":
		return NewXlsxLoader(), nil
	default:
		return NewTextLoader(), nil
	}
}
