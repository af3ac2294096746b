package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/scholarcv/fonts"
	"github.com/ByLCY/scholarcv/layout"
	"github.com/ByLCY/scholarcv/renderer"
)

const defaultLineWidth = 0.5 // pt

// Renderer draws layout results via github.com/tdewolff/canvas and measures
// text for the layout with the same font faces.
type Renderer struct {
	fontBlobs map[string][]byte // built-in:<name> 对应的字体数据

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// ErrMissingGlyph 表示字体不包含待绘制文本中的某个字符。
var ErrMissingGlyph = errors.New("字体缺少字形")

// Options configures the canvas renderer.
type Options struct {
	// Fonts 以名称保存字体数据，通过 built-in:<name> 引用。
	// 文件与 URL 形式的字体由调用方预先读取后放入这里。
	Fonts map[string][]byte
}

// NewRendererWithOptions creates a renderer with injected font data.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, data := range opts.Fonts {
		if name != "" && len(data) > 0 {
			r.fontBlobs[name] = data
		}
	}
	return r
}

// New 与 NewRendererWithOptions 相同，但会先用内置字体确认绘图库可用，
// 以便在抓取任何数据之前就失败。
func New(opts Options) (*Renderer, error) {
	r := NewRendererWithOptions(opts)
	probe := layout.FontResource{Name: "probe", Src: "embed:regular", Style: "regular"}
	if _, err := r.TextWidth("Probe", probe, 10); err != nil {
		return nil, fmt.Errorf("绘图库不可用: %w", err)
	}
	return r, nil
}

// TextWidth 实现 layout.Measurer：size 与返回值均为 pt。
// 字体缺少某个字符的字形时返回 ErrMissingGlyph，避免 PDF 中出现缺字方框。
func (r *Renderer) TextWidth(text string, font layout.FontResource, size float64) (float64, error) {
	face, err := r.fontFace(font, size, layout.Color{})
	if err != nil {
		return 0, err
	}
	if err := checkGlyphs(face, font, text); err != nil {
		return 0, err
	}
	// canvas 以 mm 返回宽度
	return face.TextWidth(text) * layout.MmToPt, nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		// 默认坐标系原点在左下角、y 轴向上，与布局一致

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	out := buf.Bytes()
	stampCreationDate(out, result.Meta.Created)
	return out, nil
}

// stampCreationDate 用 created 覆盖信息字典中的 CreationDate。
// 写出库总是使用当前时间；这里只替换等长的日期数字，交叉引用表的偏移量不变。
func stampCreationDate(out []byte, created time.Time) {
	if created.IsZero() {
		return
	}
	i := bytes.Index(out, []byte("/CreationDate"))
	if i < 0 {
		return
	}
	j := bytes.Index(out[i:], []byte("D:"))
	if j < 0 {
		return
	}
	start := i + j + len("D:")
	digits := created.In(time.Local).Format("20060102150405")
	if start+len(digits) <= len(out) {
		copy(out[start:], digits)
	}
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawPage 先画图片（水印在最底层），再画线条与文本，最后画时间戳。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	if err := r.drawImages(ctx, page.Images); err != nil {
		return err
	}
	r.drawLines(ctx, page.Lines)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, resources.Fonts)); err != nil {
			return err
		}
	}
	if page.Stamp != nil {
		if err := r.drawTextBox(ctx, *page.Stamp, resolveFontResource(page.Stamp.Font, resources.Fonts)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	if tb.Content == "" {
		return nil
	}
	face, err := r.fontFace(fontRes, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	// TextBox.Y 即基线
	ctx.DrawText(toMm(tb.X), toMm(tb.Y), canvas.NewTextLine(face, tb.Content, canvas.Left))
	return nil
}

func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, img := range images {
		if len(img.Bytes) == 0 {
			continue
		}
		imgData, _, err := image.Decode(bytes.NewReader(img.Bytes))
		if err != nil {
			return fmt.Errorf("解码图片 %s 失败: %w", img.Name, err)
		}
		width := toMm(img.Width)
		if width <= 0 {
			width = float64(imgData.Bounds().Dx()) / 4.0
		}
		dpmm := float64(imgData.Bounds().Dx()) / width
		if dpmm <= 0 {
			dpmm = 1
		}
		ctx.DrawImage(toMm(img.X), toMm(img.Y), imgData, canvas.DPMM(dpmm))
	}
	return nil
}

// drawLines 绘制直线列表，坐标与线宽均为 pt。
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultLineWidth
		}
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(toMm(w))
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(toMm(ln.X2-ln.X1), toMm(ln.Y2-ln.Y1))
		ctx.DrawPath(toMm(ln.X1), toMm(ln.Y1), p)
	}
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)
	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		return nil, canvas.FontRegular, err
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	if err := family.LoadFont(data, 0, style); err != nil {
		return fmt.Errorf("加载字体 %s 失败: %w", font.Name, err)
	}
	return nil
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	src := font.Src
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	return nil, fmt.Errorf("不支持的字体来源 %s（请使用 built-in: 或 embed:）", src)
}

// checkGlyphs 确认 face 覆盖 text 中除空白与控制字符外的所有字符。
func checkGlyphs(face *canvas.FontFace, font layout.FontResource, text string) error {
	for _, ch := range text {
		if unicode.IsSpace(ch) || unicode.IsControl(ch) {
			continue
		}
		if face.Font.GlyphIndex(ch) == 0 {
			return fmt.Errorf("%w: %s 不含 %q (U+%04X)，请在 fonts 配置中指定覆盖该文字的字体", ErrMissingGlyph, font.Name, ch, ch)
		}
	}
	return nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[layout.Regular.String()]; ok {
		return font
	}
	return layout.FontResource{Name: layout.Regular.String(), Src: "embed:regular", Style: "regular"}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	if strings.Contains(s, "bold") {
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
