package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ByLCY/scholarcv/config"
	"github.com/ByLCY/scholarcv/generator"
	"github.com/ByLCY/scholarcv/layout"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scholarcv",
	Short: "从学术主页数据生成单页 PDF 简历",
	Long: `scholarcv 读取学术主页 configs/ 目录下的 JSON 数据（本地目录或站点 URL），
排版为一页 A4 简历并输出 PDF。也可以作为 HTTP 服务为主页上的“下载简历”按钮提供 PDF。`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "scholarcv.yaml", "配置文件路径（不存在时使用默认值）")
}

func main() {
	// 存在 .env 时加载，其中的 SCHOLARCV_* 变量会覆盖配置文件
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// generateOptions 是 generate 命令的参数。
type generateOptions struct {
	data    string
	lang    string
	out     string
	debug   string
	lenient bool
	stamp   bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "生成 PDF 简历",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if opts.data != "" {
				cfg.Data = opts.data
			}
			if opts.lang != "" {
				cfg.Lang = opts.lang
			}
			if cmd.Flags().Changed("lenient") {
				cfg.LenientSections = opts.lenient
			}
			if cmd.Flags().Changed("stamp") {
				cfg.Stamp = opts.stamp
			}
			path, err := run(cmd.Context(), cfg, opts.out, opts.debug)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.data, "data", "", "主页数据目录或 URL（覆盖配置中的 data）")
	f.StringVar(&opts.lang, "lang", "", "简历语言：en 或 zh")
	f.StringVarP(&opts.out, "out", "o", "output", "PDF 输出路径；以 .pdf 结尾视为文件，否则视为目录")
	f.StringVar(&opts.debug, "debug", "", "布局调试 JSON 输出路径")
	f.BoolVar(&opts.lenient, "lenient", false, "数据源读取失败时跳过对应章节而不是中止")
	f.BoolVar(&opts.stamp, "stamp", false, "在页脚添加生成日期")
	return cmd
}

// run 串联数据读取、排版与渲染，返回写出的 PDF 路径。
func run(ctx context.Context, cfg *config.Config, out, debugPath string) (string, error) {
	gen, err := generator.New(cfg)
	if err != nil {
		return "", err
	}
	result, err := gen.Generate(ctx, generator.Request{})
	if err != nil {
		return "", fmt.Errorf("生成简历失败: %w", err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if debugPath != "" {
		if err := writeDebug(result.Result, debugPath); err != nil {
			return "", err
		}
	}

	outputPath := out
	if !strings.EqualFold(filepath.Ext(out), ".pdf") {
		outputPath = filepath.Join(out, result.Filename)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, result.PDF, 0o644); err != nil {
		return "", fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return outputPath, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
