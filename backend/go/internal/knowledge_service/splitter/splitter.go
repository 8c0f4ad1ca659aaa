package splitter

import (
	"regexp"
	"strings"
)

// 切分器把指南文本拆成知识库条目大小的块。边界对齐段落和
// Markdown 标题：一个标题连同它下面的段落尽量留在同一个块里，
// 这样每个块都是一段可独立理解的景点描述。

// DefaultMaxChars 是单个块的默认长度上限。
const DefaultMaxChars = 800

var blankLines = regexp.MustCompile(`\n{2,}`)

// Splitter 按段落和标题切分文本。
type Splitter struct {
	maxChars int
}

// New 创建切分器。maxChars 不为正时使用 DefaultMaxChars。
func New(maxChars int) *Splitter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Splitter{maxChars: maxChars}
}

// Split 把文本拆成块。标题行总是开启一个新块；普通段落向当前块
// 累积，超过长度上限时换块。超长的单个段落按字符硬切。
func (s *Splitter) Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if isHeading(block) {
			flush()
		}

		for _, piece := range hardSplit(block, s.maxChars) {
			if current.Len() > 0 && current.Len()+len(piece)+2 > s.maxChars {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
		}
	}
	flush()

	return chunks
}

// isHeading 报告一个块是否以 Markdown 标题开头。
func isHeading(block string) bool {
	return strings.HasPrefix(block, "#")
}

// hardSplit 把超过上限的段落按字符切开。在 rune 边界上切，
// 不会截断多字节字符。
func hardSplit(block string, maxChars int) []string {
	if len(block) <= maxChars {
		return []string{block}
	}

	var pieces []string
	runes := []rune(block)
	for start := 0; start < len(runes); {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[start:end])))
		start = end
	}
	return pieces
}
