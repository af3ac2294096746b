// Package markup 解析作者列表中的强调标记（<b>…</b>、<strong>…</strong>、**…**），
// 输出交替的普通/加粗片段，供排版按顺序喂给 WrapText。
package markup

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	authorsLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "OpenB", Pattern: `(?i)<b>`},
		{Name: "CloseB", Pattern: `(?i)</b>`},
		{Name: "OpenStrong", Pattern: `(?i)<strong>`},
		{Name: "CloseStrong", Pattern: `(?i)</strong>`},
		{Name: "Stars", Pattern: `\*\*`},
		{Name: "Text", Pattern: `[^<*]+`},
		{Name: "Stray", Pattern: `[<*]`},
	})

	authorsParser = participle.MustBuild[authorList](
		participle.Lexer(authorsLexer),
	)
)

type authorList struct {
	Segments []*segment `parser:"@@*"`
}

type segment struct {
	Bold  *emphasis `parser:"  @@"`
	Plain *string   `parser:"| @(Text | Stray)"`
}

type emphasis struct {
	Text []string `parser:"(  OpenB @(Text | Stray)* CloseB | OpenStrong @(Text | Stray)* CloseStrong | Stars @(Text | Stray)* Stars )"`
}

// Span 是一段同样式的文本。
type Span struct {
	Text string
	Bold bool
}

// Parse 将作者字符串拆成片段。标记不完整时退化为一个去掉标记的普通片段。
func Parse(authors string) []Span {
	if authors == "" {
		return nil
	}
	list, err := authorsParser.ParseString("", authors)
	if err != nil {
		return []Span{{Text: Strip(authors)}}
	}
	var spans []Span
	push := func(text string, bold bool) {
		if text == "" {
			return
		}
		if n := len(spans); n > 0 && spans[n-1].Bold == bold {
			spans[n-1].Text += text
			return
		}
		spans = append(spans, Span{Text: text, Bold: bold})
	}
	for _, seg := range list.Segments {
		switch {
		case seg.Bold != nil:
			push(strings.Join(seg.Bold.Text, ""), true)
		case seg.Plain != nil:
			push(*seg.Plain, false)
		}
	}
	return spans
}

// tagPattern 与词法规则一致：标签不区分大小写。
var tagPattern = regexp.MustCompile(`(?i)</?(?:b|strong)>|\*\*`)

// Strip 去掉所有强调标记，返回纯文本。
func Strip(authors string) string {
	return tagPattern.ReplaceAllString(authors, "")
}
