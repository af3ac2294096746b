package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 595, 842}
	for _, pt := range samples {
		mm := pt * PtToMm
		back := mm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
}

// TestParseLength 覆盖常见单位到 pt 的转换。
func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"50pt", 50},
		{"50", 50},
		{"1in", 72},
		{"10mm", 10 * MmToPt},
		{"2.54cm", 25.4 * MmToPt},
		{" 12PT ", 12},
	}
	for _, c := range cases {
		l, err := ParseLength(c.in)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", c.in, err)
		}
		if got := l.ToPT(); math.Abs(got-c.want) > 1e-6 {
			t.Fatalf("%q 转 pt 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
	if _, err := ParseLength("abc"); err == nil {
		t.Fatalf("非法长度应返回错误")
	}
	if _, err := ParseLength(""); err == nil {
		t.Fatalf("空长度应返回错误")
	}
}

// TestLineHeightResolve 验证倍数与绝对值两种行高语义。
func TestLineHeightResolve(t *testing.T) {
	lh, err := ParseLineHeight("1.4x")
	if err != nil {
		t.Fatalf("解析 1.4x 失败: %v", err)
	}
	if got := lh.Resolve(10); math.Abs(got-14) > 1e-9 {
		t.Fatalf("1.4x 行高期望 14pt，实际 %g", got)
	}
	lh, err = ParseLineHeight("5mm")
	if err != nil {
		t.Fatalf("解析 5mm 失败: %v", err)
	}
	if got := lh.Resolve(10); math.Abs(got-5*MmToPt) > 1e-9 {
		t.Fatalf("5mm 行高期望 %g，实际 %g", 5*MmToPt, got)
	}
}
