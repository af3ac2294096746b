package layout

import "log"

// Measurer 提供文本宽度度量：给定字体与字号（pt）返回文本宽度（pt）。
type Measurer interface {
	TextWidth(text string, font FontResource, size float64) (float64, error)
}

// SurfaceOptions 配置一次排版所需的页面参数与依赖。
type SurfaceOptions struct {
	Width    float64 // 默认 PageWidth
	Height   float64 // 默认 PageHeight
	Margin   Margin  // 各边为 0 时取 DefaultMargin
	Styles   StyleSet
	Measurer Measurer
	Logger   *log.Logger
}

const (
	PageWidth     = 595.0
	PageHeight    = 842.0
	DefaultMargin = 50.0
	// MinSpacing 是左侧文本与右对齐文本之间允许的最小间距。
	MinSpacing = 10.0
)

func (o SurfaceOptions) withDefaults() SurfaceOptions {
	if o.Width <= 0 {
		o.Width = PageWidth
	}
	if o.Height <= 0 {
		o.Height = PageHeight
	}
	if o.Margin.Top <= 0 {
		o.Margin.Top = DefaultMargin
	}
	if o.Margin.Bottom <= 0 {
		o.Margin.Bottom = DefaultMargin
	}
	if o.Margin.Left <= 0 {
		o.Margin.Left = DefaultMargin
	}
	if o.Margin.Right <= 0 {
		o.Margin.Right = DefaultMargin
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}
