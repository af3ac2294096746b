package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// 配置文件中的长度与行高写法；排版内部始终使用 pt。

// pt 与 mm 的换算系数。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// unitScale 是各单位到 pt 的换算系数，按后缀匹配。
var unitScale = []struct {
	suffix string
	pt     float64
}{
	{"mm", MmToPt},
	{"cm", 10 * MmToPt},
	{"in", 72},
	{"pt", 1},
}

// Length 是换算前的长度：数值乘以 Scale 即为 pt。
type Length struct {
	Value float64
	Scale float64
}

// ToPT 返回以 pt 为单位的长度。
func (l Length) ToPT() float64 {
	if l.Scale == 0 {
		return l.Value
	}
	return l.Value * l.Scale
}

// ParseLength 解析 "50pt"、"18mm"、"1.5cm"、"1in" 或不带单位的数字（按 pt 处理）。
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	l := Length{Scale: 1}
	for _, u := range unitScale {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			l.Scale = u.pt
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	l.Value = f
	return l, nil
}

// LineHeightSpec 是正文字号的倍数（"1.4x"）或绝对长度（"14pt"）。
type LineHeightSpec struct {
	Factor float64 // >0 时按倍数解析
	Len    Length
}

// ParseLineHeight 接受 "1.4x" 或 ParseLength 支持的任意写法。
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if num, ok := strings.CutSuffix(v, "x"); ok {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return LineHeightSpec{}, fmt.Errorf("无法解析行高 %q: %w", value, err)
		}
		return LineHeightSpec{Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	return LineHeightSpec{Len: l}, nil
}

// Resolve 按字号（pt）计算实际行高（pt）。
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	if s.Factor != 0 {
		return fontSize * s.Factor
	}
	return s.Len.ToPT()
}
