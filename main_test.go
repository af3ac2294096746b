package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/scholarcv/config"
)

func writeHomepage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"configs/en/info.json":       `{"name":"Ada Chen","institution":"Tsinghua University"}`,
		"configs/en/education.json":  `[]`,
		"configs/en/employment.json": `[]`,
		"configs/en/papers.json":     `{"2024":[{"authors":"<b>A. Chen</b>","title":"Layout","type":"Journal","journal":"JOL"}]}`,
		"configs/en/patents.json":    `{"patents":[]}`,
		"configs/en/teaching.json":   `[]`,
		"configs/en/honors.json":     `[]`,
		"configs/en/reviewer.json":   `[]`,
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("创建目录失败: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("写入 %s 失败: %v", name, err)
		}
	}
	return dir
}

func TestRunWritesPDFAndDebug(t *testing.T) {
	cfg := config.Default()
	cfg.Data = writeHomepage(t)
	outDir := filepath.Join(t.TempDir(), "output")
	debugPath := filepath.Join(t.TempDir(), "debug", "layout.json")

	path, err := run(context.Background(), cfg, outDir, debugPath)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if path != filepath.Join(outDir, "cv_en.pdf") {
		t.Fatalf("输出路径 = %s", path)
	}
	pdf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取 PDF 失败: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
	debug, err := os.ReadFile(debugPath)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	if !strings.Contains(string(debug), `"pages"`) {
		t.Fatalf("调试 JSON 缺少 pages 字段")
	}
}

func TestRunExplicitFile(t *testing.T) {
	cfg := config.Default()
	cfg.Data = writeHomepage(t)
	out := filepath.Join(t.TempDir(), "me.pdf")

	path, err := run(context.Background(), cfg, out, "")
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	if path != out {
		t.Fatalf("输出路径 = %s, want %s", path, out)
	}
}

func TestRunMissingData(t *testing.T) {
	cfg := config.Default()
	cfg.Data = t.TempDir()
	if _, err := run(context.Background(), cfg, t.TempDir(), ""); err == nil {
		t.Fatalf("缺少数据时应报错")
	}
}

func TestInitWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scholarcv.yaml")
	rootCmd.SetArgs([]string{"init", "--config", path})
	rootCmd.SetOut(&bytes.Buffer{})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("init 失败: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.OutputName != config.Default().OutputName {
		t.Fatalf("output_name = %q", cfg.OutputName)
	}

	rootCmd.SetArgs([]string{"init", "--config", path})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("配置已存在时应报错")
	}
}
