package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ByLCY/scholarcv/config"
	"github.com/ByLCY/scholarcv/generator"
	"github.com/ByLCY/scholarcv/server"
)

func init() {
	rootCmd.AddCommand(newGenerateCmd(), newServeCmd(), newInspectCmd(), newInitCmd())
}

func newServeCmd() *cobra.Command {
	var (
		addr     string
		allowAll bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务，按请求实时生成简历",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("allow-all-origins") {
				cfg.Server.AllowAllOrigins = allowAll
			}
			gen, err := generator.New(cfg)
			if err != nil {
				return err
			}
			srv := server.New(cfg.Server, gen)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				fmt.Fprintln(os.Stderr, "\nShutting down server...")
				srv.Shutdown(context.Background())
			}()

			fmt.Fprintf(os.Stderr, "scholarcv serving %s (data=%s)\n", cfg.Server.Addr, cfg.Data)
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（覆盖配置中的 server.addr）")
	cmd.Flags().BoolVar(&allowAll, "allow-all-origins", false, "允许任意来源的跨域请求")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var (
		data string
		lang string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "读取主页数据并输出各章节条目数，不生成 PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if data != "" {
				cfg.Data = data
			}
			gen, err := generator.New(cfg)
			if err != nil {
				return err
			}
			rep, err := gen.Inspect(cmd.Context(), lang)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "主页数据目录或 URL")
	cmd.Flags().StringVar(&lang, "lang", "", "简历语言：en 或 zh")
	return cmd
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "写出默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgFile); err == nil && !force {
				return fmt.Errorf("配置文件 %s 已存在（使用 --force 覆盖）", cfgFile)
			}
			if err := config.Default().Save(cfgFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入配置：%s\n", cfgFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}
