package layout

import (
	"fmt"
	"log"
	"math"
	"strings"
	"unicode"
)

// Surface 是单页排版上下文：固定页面尺寸、左右边距、纵向游标以及记录下来的绘制操作。
// 游标在一次排版中只会下降；不做分页，超出页面底部时只记录警告。
type Surface struct {
	page     Page
	styles   StyleSet
	measurer Measurer
	logger   *log.Logger

	cursor   float64
	err      error
	warnings []string
	overflow bool
}

// WrapResult 是一次 WrapText 的输出。
type WrapResult struct {
	X         float64 // 最后一个词之后的 x
	Y         float64 // 最后一行的基线
	StartY    float64 // 开始折行前的基线，供右对齐文本使用
	Truncated bool    // 是否实际换到了新行
}

// NewSurface 创建一个空白页面，游标位于上边距处。
func NewSurface(opts SurfaceOptions) (*Surface, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少文本度量后端 Measurer")
	}
	opts = opts.withDefaults()
	if opts.Margin.Left+opts.Margin.Right >= opts.Width {
		return nil, fmt.Errorf("layout: 左右边距 %.1f+%.1f 超出页面宽度 %.1f", opts.Margin.Left, opts.Margin.Right, opts.Width)
	}
	return &Surface{
		page: Page{
			Width:  opts.Width,
			Height: opts.Height,
			Margin: opts.Margin,
			Texts:  []TextBox{},
		},
		styles:   opts.Styles,
		measurer: opts.Measurer,
		logger:   opts.Logger,
		cursor:   opts.Height - opts.Margin.Top,
	}, nil
}

func (s *Surface) Styles() StyleSet { return s.styles }
func (s *Surface) LeftMargin() float64 { return s.page.Margin.Left }
func (s *Surface) RightMargin() float64 { return s.page.Width - s.page.Margin.Right }
func (s *Surface) BottomMargin() float64 { return s.page.Margin.Bottom }
func (s *Surface) Height() float64 { return s.page.Height }
func (s *Surface) Width() float64 { return s.page.Width }
func (s *Surface) Cursor() float64 { return s.cursor }

// Err 返回排版过程中遇到的第一个度量错误。
func (s *Surface) Err() error { return s.err }

// Warnings 返回非致命警告（坐标非法、超出页面等）。
func (s *Surface) Warnings() []string { return append([]string(nil), s.warnings...) }

// MoveTo 将游标移到 y；向上移动会被忽略以保持单调。
func (s *Surface) MoveTo(y float64) {
	if y < s.cursor {
		s.cursor = y
	}
}

// MeasureText 返回文本宽度（pt）。度量失败时记录错误并返回 0。
func (s *Surface) MeasureText(run TextRun) float64 {
	if s.err != nil || run.Text == "" {
		return 0
	}
	w, err := s.measurer.TextWidth(run.Text, s.styles.Font(run.Font), run.Size)
	if err != nil {
		s.err = fmt.Errorf("度量文本 %q 失败: %w", run.Text, err)
		return 0
	}
	return w
}

// DrawText 在 (x, y) 处绘制单行文本，y 为基线。坐标非法时跳过并返回 false。
func (s *Surface) DrawText(run TextRun, x, y float64) bool {
	if s.err != nil || run.Text == "" {
		return false
	}
	width := s.MeasureText(run)
	if s.err != nil {
		return false
	}
	return s.place(run, x, y, width)
}

func (s *Surface) place(run TextRun, x, y, width float64) bool {
	if run.Text == "" {
		return false
	}
	if !finite(x, y, width) {
		s.warn("跳过坐标非法的文本 %q (x=%v y=%v w=%v)", run.Text, x, y, width)
		return false
	}
	s.checkOverflow(y)
	s.page.Texts = append(s.page.Texts, TextBox{
		Content:  run.Text,
		X:        x,
		Y:        y,
		Width:    width,
		Font:     s.styles.Font(run.Font).Name,
		FontSize: run.Size,
		Color:    run.Color,
	})
	return true
}

// WrapText 逐词贪心排布文本：放置一个词前，若 x+词宽 > maxX 且当前不在折行起点，
// 则回到 wrapResumeX 并下移一行。单个超长词不折行，允许溢出。
// 连续调用时把返回的 X/Y 传入下一次调用，即可让不同字体的片段在同一段落中连续排布。
func (s *Surface) WrapText(run TextRun, startX, startY, maxX, lineHeight, wrapResumeX float64) WrapResult {
	res := WrapResult{X: startX, Y: startY, StartY: startY}
	if s.err != nil {
		return res
	}
	for _, word := range splitWords(run.Text) {
		if word == "" {
			continue
		}
		piece := run
		piece.Text = word
		w := s.MeasureText(piece)
		if s.err != nil {
			return res
		}
		if !finite(w) {
			s.warn("跳过宽度非法的词 %q", word)
			continue
		}
		if res.X+w > maxX && res.X > wrapResumeX {
			if strings.TrimSpace(word) == "" {
				// 折行处的空白词直接丢弃，新行不以空格开头
				continue
			}
			res.X = wrapResumeX
			res.Y -= lineHeight
			res.Truncated = true
		}
		s.place(piece, res.X, res.Y, w)
		res.X += w
	}
	return res
}

// DrawRightAligned 把文本右对齐到右边距。左侧内容未折行且与右侧文本间距小于
// MinSpacing 时，右侧文本下移一行；左侧已折行时不做碰撞检查，直接画在 originalY。
// 返回实际绘制的基线；坐标非法时不绘制并返回 originalY。
func (s *Surface) DrawRightAligned(run TextRun, leftEdgeX, originalY float64, truncated bool, lineHeight float64) float64 {
	if s.err != nil || run.Text == "" {
		return originalY
	}
	w := s.MeasureText(run)
	if s.err != nil {
		return originalY
	}
	x := s.RightMargin() - w
	if !finite(x, leftEdgeX, originalY) {
		s.warn("右对齐文本 %q 坐标非法，已跳过", run.Text)
		return originalY
	}
	y := originalY
	if !truncated && leftEdgeX+MinSpacing > x {
		y -= lineHeight
	}
	s.place(run, x, y, w)
	return y
}

// DrawCentered 在页面水平居中绘制文本。
func (s *Surface) DrawCentered(run TextRun, y float64) {
	w := s.MeasureText(run)
	if s.err != nil {
		return
	}
	s.place(run, (s.page.Width-w)/2, y, w)
}

// DrawLine 记录一条线段。
func (s *Surface) DrawLine(x1, y1, x2, y2 float64, c Color, width float64) {
	if s.err != nil {
		return
	}
	if !finite(x1, y1, x2, y2) {
		s.warn("跳过坐标非法的线段")
		return
	}
	s.page.Lines = append(s.page.Lines, Line{X1: x1, Y1: y1, X2: x2, Y2: y2, Color: c, Width: width})
}

// DrawImage 记录一张图片。
func (s *Surface) DrawImage(img ImageBox) {
	if s.err != nil || len(img.Bytes) == 0 {
		return
	}
	if !finite(img.X, img.Y, img.Width, img.Height) {
		s.warn("跳过坐标非法的图片 %s", img.Name)
		return
	}
	s.page.Images = append(s.page.Images, img)
}

// SetStamp 记录独立于正文的时间戳文本。
func (s *Surface) SetStamp(run TextRun, x, y float64) {
	w := s.MeasureText(run)
	if s.err != nil || run.Text == "" || !finite(x, y, w) {
		return
	}
	s.page.Stamp = &TextBox{
		Content:  run.Text,
		X:        x,
		Y:        y,
		Width:    w,
		Font:     s.styles.Font(run.Font).Name,
		FontSize: run.Size,
		Color:    run.Color,
	}
}

// Result 导出显示列表。
func (s *Surface) Result(meta DocumentMeta) *Result {
	return &Result{
		Pages:     []Page{s.page},
		Resources: s.styles.Resources(),
		Meta:      meta,
		Warnings:  s.Warnings(),
	}
}

func (s *Surface) checkOverflow(y float64) {
	if s.overflow || y >= s.page.Margin.Bottom {
		return
	}
	s.overflow = true
	s.warn("内容超出页面底部 (y=%.1f)，单页布局不分页", y)
}

func (s *Surface) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, msg)
	s.logger.Printf("layout: %s", msg)
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// splitWords 按空格切词，除最后一个词外都带上一个尾随空格；
// 词内的 CJK 字符逐字拆开，以便中文可以折行。
func splitWords(text string) []string {
	if text == "" {
		return nil
	}
	words := strings.Split(text, " ")
	out := make([]string, 0, len(words))
	for i, w := range words {
		parts := splitCJK(w)
		if i < len(words)-1 {
			if len(parts) == 0 {
				parts = []string{""}
			}
			parts[len(parts)-1] += " "
		}
		out = append(out, parts...)
	}
	return out
}

func splitCJK(word string) []string {
	var parts []string
	var b strings.Builder
	for _, r := range word {
		if !isCJK(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			parts = append(parts, b.String())
			b.Reset()
		}
		parts = append(parts, string(r))
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func isCJK(r rune) bool {
	switch {
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
		return true
	case r >= 0x3000 && r <= 0x303F, r >= 0xFF00 && r <= 0xFFEF:
		return true
	}
	return false
}
