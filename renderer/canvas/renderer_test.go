package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/scholarcv/cv"
	"github.com/ByLCY/scholarcv/cvdata"
	"github.com/ByLCY/scholarcv/fonts"
	"github.com/ByLCY/scholarcv/layout"
)

var regular = layout.FontResource{Name: "regular", Src: "embed:regular", Style: "regular"}

func TestTextWidthScalesWithSize(t *testing.T) {
	r := NewRendererWithOptions(Options{})
	small, err := r.TextWidth("Curriculum Vitae", regular, 10)
	if err != nil {
		t.Fatalf("度量失败: %v", err)
	}
	large, err := r.TextWidth("Curriculum Vitae", regular, 20)
	if err != nil {
		t.Fatalf("度量失败: %v", err)
	}
	if small <= 0 {
		t.Fatalf("宽度应为正数, got %g", small)
	}
	if math.Abs(large-2*small) > 1e-6*large {
		t.Fatalf("宽度应与字号成正比: 10pt=%g 20pt=%g", small, large)
	}
	// 10pt 的 16 个字符远小于页面宽度，也不会小到只有 mm 量级
	if small < 30 || small > 200 {
		t.Fatalf("宽度单位应为 pt, got %g", small)
	}
}

func TestBuiltInFontBlob(t *testing.T) {
	data, err := fonts.Load("embed:italic")
	if err != nil {
		t.Fatalf("读取内置字体失败: %v", err)
	}
	r := NewRendererWithOptions(Options{Fonts: map[string][]byte{"italic": data}})
	font := layout.FontResource{Name: "italic", Src: "built-in:italic", Style: "italic"}
	if _, err := r.TextWidth("x", font, 10); err != nil {
		t.Fatalf("built-in 字体应可用: %v", err)
	}
	missing := layout.FontResource{Name: "bold", Src: "built-in:bold", Style: "bold"}
	if _, err := r.TextWidth("x", missing, 10); err == nil {
		t.Fatalf("缺少 built-in 字体时应报错")
	}
	relative := layout.FontResource{Name: "rel", Src: "fonts/x.ttf"}
	if _, err := r.TextWidth("x", relative, 10); err == nil {
		t.Fatalf("文件路径形式的字体来源应报错")
	}
}

func TestTextWidthRejectsMissingGlyph(t *testing.T) {
	r := NewRendererWithOptions(Options{})
	if _, err := r.TextWidth("Café \u2013 2024\u00a0•", regular, 10); err != nil {
		t.Fatalf("Latin Modern 覆盖的字符不应报错: %v", err)
	}
	_, err := r.TextWidth("Ada 陈爱达", regular, 10)
	if !errors.Is(err, ErrMissingGlyph) {
		t.Fatalf("缺少中文字形时应返回 ErrMissingGlyph, got %v", err)
	}
}

func TestNewProbesDrawingLibrary(t *testing.T) {
	if _, err := New(Options{}); err != nil {
		t.Fatalf("内置字体应能通过探测: %v", err)
	}
}

func TestParseFontStyle(t *testing.T) {
	cases := map[string]canvas.FontStyle{
		"":            canvas.FontRegular,
		"regular":     canvas.FontRegular,
		"bold":        canvas.FontBold,
		"italic":      canvas.FontRegular | canvas.FontItalic,
		"bold-italic": canvas.FontBold | canvas.FontItalic,
	}
	for in, want := range cases {
		if got := parseFontStyle(in); got != want {
			t.Fatalf("parseFontStyle(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRendererWithOptions(Options{})
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("nil 结果应报错")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("没有页面时应报错")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码 PNG 失败: %v", err)
	}
	return buf.Bytes()
}

func TestRenderWritesPDF(t *testing.T) {
	styles := layout.DefaultStyleSet()
	res := &layout.Result{
		Pages: []layout.Page{{
			Width:  layout.PageWidth,
			Height: layout.PageHeight,
			Texts:  []layout.TextBox{{Content: "Hello", X: 50, Y: 700, Font: "bold", FontSize: 12}},
			Images: []layout.ImageBox{{Name: "wm", Bytes: pngBytes(t), X: 100, Y: 100, Width: 40, Height: 20}},
			Lines:  []layout.Line{{X1: 50, Y1: 690, X2: 545, Y2: 690, Width: 0.8}},
			Stamp:  &layout.TextBox{Content: "stamp", X: 480, Y: 25, Font: "italic", FontSize: 8},
		}},
		Resources: styles.Resources(),
		Meta:      layout.DocumentMeta{Title: "CV", Author: "A", Keywords: []string{"CV"}},
	}
	out, err := NewRendererWithOptions(Options{}).Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF: %q", out[:min(len(out), 8)])
	}
}

func TestRenderStampsCreationDate(t *testing.T) {
	styles := layout.DefaultStyleSet()
	res := &layout.Result{
		Pages: []layout.Page{{
			Width:  layout.PageWidth,
			Height: layout.PageHeight,
			Texts:  []layout.TextBox{{Content: "Hello", X: 50, Y: 700, Font: "regular", FontSize: 12}},
		}},
		Resources: styles.Resources(),
		Meta:      layout.DocumentMeta{Title: "CV", Created: time.Date(2024, time.March, 5, 9, 0, 0, 0, time.Local)},
	}
	r := NewRendererWithOptions(Options{})
	first, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.Contains(first, []byte("D:20240305090000")) {
		t.Fatalf("CreationDate 应使用 Meta.Created")
	}
	time.Sleep(1100 * time.Millisecond)
	second, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("相同的布局结果应渲染出相同的 PDF")
	}
}

func TestRenderRejectsBrokenImage(t *testing.T) {
	res := &layout.Result{Pages: []layout.Page{{
		Width: layout.PageWidth, Height: layout.PageHeight,
		Images: []layout.ImageBox{{Name: "bad", Bytes: []byte("not an image"), Width: 10, Height: 10}},
	}}}
	if _, err := NewRendererWithOptions(Options{}).Render(res); err == nil {
		t.Fatalf("无法解码的图片应报错")
	}
}

func TestLayoutAndRenderCV(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatalf("创建渲染器失败: %v", err)
	}
	data := &cvdata.Data{
		Lang: "en",
		Info: cvdata.Info{Name: "Ada Chen", Institution: "Tsinghua University"},
		Papers: cvdata.Papers{"2024": {{
			Authors: "<b>A. Chen</b>, B. Li", Title: "A study of layout engines", Type: "Conference",
			Conference: "Conference on Typesetting", Location: "Paris", Abbr: "CTS",
		}}},
		Reviewers: []cvdata.Reviewer{{Journal: "Journal of Layout", Year: "2023"}},
	}
	res, err := cv.Build(data, cv.Options{Measurer: r, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	for _, tb := range res.Pages[0].Texts {
		if tb.X+tb.Width > layout.PageWidth-layout.DefaultMargin+1e-6 {
			t.Fatalf("文本 %q 超出右边距: x=%g w=%g", tb.Content, tb.X, tb.Width)
		}
	}
	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}
