package layout

// Variant 表示字体变体，同时作为 StyleSet.Fonts 的下标。
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

var variantNames = [...]string{"regular", "bold", "italic", "bold-italic"}

func (v Variant) String() string {
	if v < Regular || v > BoldItalic {
		return "regular"
	}
	return variantNames[v]
}

// Accents 是按出版类型区分的强调色。
type Accents struct {
	Conference Color `json:"conference"`
	Journal    Color `json:"journal"`
	Workshop   Color `json:"workshop"`
	Submission Color `json:"submission"`
}

// StyleSet 汇总字体变体、字号与调色板。
type StyleSet struct {
	Fonts [4]FontResource

	TitleSize      float64
	SectionSize    float64
	SubsectionSize float64
	BodySize       float64
	LineHeight     float64

	Brand   Color
	Gray    Color
	Black   Color
	Accents Accents
}

// DefaultStyleSet 使用内置 Latin Modern 字体与默认调色板。
func DefaultStyleSet() StyleSet {
	s := StyleSet{
		TitleSize:      22,
		SectionSize:    14,
		SubsectionSize: 12,
		BodySize:       10,
		LineHeight:     14,
		Brand:          Color{R: 31, G: 78, B: 121},
		Gray:           Color{R: 110, G: 110, B: 110},
		Black:          Color{R: 0, G: 0, B: 0},
		Accents: Accents{
			Conference: Color{R: 192, G: 57, B: 43},
			Journal:    Color{R: 41, G: 128, B: 185},
			Workshop:   Color{R: 39, G: 174, B: 96},
			Submission: Color{R: 0, G: 0, B: 0},
		},
	}
	for v := Regular; v <= BoldItalic; v++ {
		s.Fonts[v] = FontResource{Name: v.String(), Src: "embed:" + v.String(), Style: v.String()}
	}
	return s
}

// WithFontSource 替换某个变体的字体来源，空字符串保持不变。
func (s StyleSet) WithFontSource(v Variant, src string) StyleSet {
	if src != "" && v >= Regular && v <= BoldItalic {
		s.Fonts[v].Src = src
	}
	return s
}

// Font 返回变体对应的字体资源。
func (s StyleSet) Font(v Variant) FontResource {
	if v < Regular || v > BoldItalic {
		v = Regular
	}
	return s.Fonts[v]
}

// Resources 以字体名为键导出资源表。
func (s StyleSet) Resources() ResourceSet {
	fonts := make(map[string]FontResource, len(s.Fonts))
	for _, f := range s.Fonts {
		fonts[f.Name] = f
	}
	return ResourceSet{Fonts: fonts}
}

// TextRun 是可度量、可绘制的最小文本单元。
type TextRun struct {
	Text  string
	Font  Variant
	Size  float64
	Color Color
}

// Run 以正文字号构造一个 TextRun。
func (s StyleSet) Run(text string, v Variant, c Color) TextRun {
	return TextRun{Text: text, Font: v, Size: s.BodySize, Color: c}
}
