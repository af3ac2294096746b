package layout

import "time"

// 该文件定义布局结果（显示列表）与资源描述，供排版、渲染与调试 JSON 共用。
// 坐标系与 PDF 一致：单位为 pt，原点位于页面左下角，y 轴向上。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
	// Warnings 汇总排版过程中的非致命问题（溢出、坐标非法等）。
	Warnings []string `json:"warnings,omitempty"`
}

// ResourceSet 记录排版用到的字体定义。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:* 或 built-in:* 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
type Page struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Margin Margin     `json:"margin"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images,omitempty"`
	Lines  []Line     `json:"lines,omitempty"`
	// Stamp 为可选的“生成时间”标记，单独存放以便比较内容时排除。
	Stamp *TextBox `json:"stamp,omitempty"`
}

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一段已经确定基线坐标的单行文本。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"` // 基线
	Width    float64 `json:"width"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
}

// ImageBox 用于描述图片位置与尺寸，Bytes 不参与 JSON 输出。
type ImageBox struct {
	Name   string  `json:"name"`
	Bytes  []byte  `json:"-"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"` // 图片左下角
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（pt），<=0 时由渲染器给默认值
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
	// Created 为零值时 PDF 的 CreationDate 取渲染时刻。
	Created time.Time `json:"created,omitzero"`
}
