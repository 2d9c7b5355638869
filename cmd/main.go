package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"CyberDash/internal/config"
	"CyberDash/internal/dashboard"
	"CyberDash/internal/model"
	"CyberDash/internal/pipeline"
	"CyberDash/internal/render"
	"CyberDash/internal/store"
	"CyberDash/internal/transport"
	"CyberDash/internal/utils"
	"CyberDash/pkg/cli"
)

func main() {
	// 解析命令行参数
	parser := cli.NewParser()
	if err := parser.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "使用方法: %s [-listen <地址>] [-tool <工具> -input <输入>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "使用 -help 查看完整帮助信息\n")
		os.Exit(1)
	}

	options := parser.Options

	cfg, err := loadConfig(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if err := utils.Configure(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger("main")
	logger.Info("启动 CyberDash")
	if options.Verbose {
		logger.Info("配置: %s", cfg)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("初始化数据库失败: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	settings := store.NewSettingsStore(db)

	views, err := render.New()
	if err != nil {
		logger.Error("加载模板失败: %v", err)
		os.Exit(1)
	}

	client := transport.NewClient(cfg.Backend.BaseURL, cfg.Backend.IPInfoURL, cfg.Timeout())
	board := pipeline.NewBoard()
	kit := pipeline.NewToolkit(board, views, settings, clipboard.WriteAll)

	var fixtures pipeline.Fixtures = pipeline.NoFixtures{}
	if cfg.Demo.Enabled {
		fixtures = pipeline.DemoFixtures{}
	}
	p := pipeline.New(client, kit, views, fixtures)

	if options.OneShot() {
		os.Exit(runOnce(p, options, logger))
	}

	server := dashboard.New(p, board, kit, views, settings, db)
	if err := serve(cfg.Server.Listen, server, logger); err != nil {
		logger.Error("服务器错误: %v", err)
		os.Exit(1)
	}
}

// loadConfig 读取配置文件并用命令行参数覆盖
func loadConfig(options model.Options) (*config.Config, error) {
	cfg := config.Default()
	if options.ConfigFile != "" {
		loaded, err := config.Load(options.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if options.Listen != "" {
		cfg.Server.Listen = options.Listen
	}
	if options.Backend != "" {
		cfg.Backend.BaseURL = options.Backend
	}
	if options.IPInfoURL != "" {
		cfg.Backend.IPInfoURL = options.IPInfoURL
	}
	if options.Database != "" {
		cfg.Database.Path = options.Database
	}
	if options.Timeout >= 0 {
		cfg.Backend.TimeoutSeconds = options.Timeout
	}
	if options.NoDemo {
		cfg.Demo.Enabled = false
	}
	if options.LogLevel != "" {
		cfg.Logging.Level = options.LogLevel
	} else if options.Verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg, cfg.Validate()
}

// runOnce 单次查询，返回进程退出码
func runOnce(p *pipeline.Pipeline, options model.Options, logger *utils.Logger) int {
	tool, err := model.ParseTool(options.Tool)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	req := model.LookupRequest{Tool: tool, Input: options.Input}
	if tool == model.ToolPortScan {
		req.Options = map[string]string{model.PortsOption: options.PortRange}
	}

	startTime := time.Now()
	out := p.Run(context.Background(), req)

	formatter := cli.NewOutputFormatter(options.OutputFormat)
	if err := formatter.PrintResult(out, options.OutputFile); err != nil {
		logger.Error("输出结果失败: %v", err)
		return 1
	}

	if options.Verbose {
		logger.Info("查询完成 (%s)，耗时: %v", out.Kind, time.Since(startTime))
	}

	switch out.Kind {
	case pipeline.OutcomeInvalid:
		return 2
	case pipeline.OutcomeError:
		return 1
	}
	return 0
}

// serve 运行仪表盘直到收到 SIGINT/SIGTERM
func serve(addr string, server *dashboard.Server, logger *utils.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("仪表盘监听于 http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("收到信号 %v，正在关闭", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	// 已提交的查询运行到结束，活动日志写完后再关闭数据库
	server.Wait()
	logger.Info("已关闭")
	return nil
}
