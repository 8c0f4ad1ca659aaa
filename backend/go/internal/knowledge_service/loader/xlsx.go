package loader

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxLoader 提取 Excel (.xlsx) 文件的纯文本。行情类的旅行清单
// （景点列表、费用表）常以表格形式提供。
type XlsxLoader struct{}

// NewXlsxLoader 创建一个新的 XlsxLoader。
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{}
}

// Load 读取一个 .xlsx 文件，每个工作表的每一行拼成一行文本，
// 单元格之间以制表符分隔。
func (l *XlsxLoader) Load(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var textBuilder strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			textBuilder.WriteString(strings.Join(row, "\t"))
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}
