// =============================================================================
// HiveFlow 主入口
// =============================================================================
// 演示入口点,包含示例管线运行与 Prometheus 指标暴露
//
// 使用方法:
//
//	hiveflow demo                        # 运行内置 greeter 演示管线
//	hiveflow demo --config config.yaml   # 指定配置文件
//	hiveflow version                     # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/quick"
	"github.com/BaSui01/hiveflow/schema"
	"github.com/BaSui01/hiveflow/testutil/mocks"
	"github.com/BaSui01/hiveflow/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "demo":
		runDemo(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🚇 demo 子命令
// =============================================================================

func runDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	language := fs.String("language", "es", "greeting language")
	name := fs.String("name", "Maria", "who to greet")
	fs.Parse(args) //nolint:errcheck

	var opts []quick.Option
	if *configPath != "" {
		opts = append(opts, quick.WithConfigPath(*configPath))
	}
	// 演示管线不做 LLM 路由,用 mock 客户端避免要求真实凭证
	opts = append(opts, quick.WithClient(mocks.NewMockCompletionClient()))

	rt, err := quick.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hiveflow: %v\n", err)
		os.Exit(1)
	}
	logger := rt.Logger()
	defer logger.Sync() //nolint:errcheck

	cfg := rt.Config()

	// 运行时自带链路追踪,退出前刷掉未导出的 span
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rt.Close(ctx) //nolint:errcheck
	}()

	// 指标端点
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics, logger)
	}

	registerDemoAgents(rt)

	res, err := rt.Process(context.Background(), "greeter",
		types.DataMap{"language": *language, "name": *name})
	if err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	id, _ := res.Data.PipelineID()
	fmt.Printf("pipeline %d finished with outcome %q\n", id, res.Outcome)
	for k, v := range res.Data {
		fmt.Printf("  %s = %v\n", k, v)
	}
}

func serveMetrics(cfg config.MetricsConfig, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics endpoint listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Error("metrics endpoint failed", zap.Error(err))
	}
}

func registerDemoAgents(rt *quick.Runtime) {
	greetings := map[string]string{"en": "Hello", "es": "¡Hola", "fr": "Bonjour"}

	greeter := agent.NewBuilder("greeter").
		Input(
			schema.Field{Name: "language", Type: schema.TypeString, Required: true},
			schema.Field{Name: "name", Type: schema.TypeString, Default: "friend"},
		).
		Outcome("supported_language", agent.ForwardTo("formatter")).
		Outcome("unsupported_language", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			lang := in["language"].(string)
			greeting, ok := greetings[lang]
			if !ok {
				return "unsupported_language", types.DataMap{"unsupported_language": lang}, nil
			}
			return "supported_language", types.DataMap{
				"greeting": fmt.Sprintf("%s %s", greeting, in["name"]),
			}, nil
		}).
		MustBuild()

	formatter := agent.NewBuilder("formatter").
		Input(schema.Field{Name: "greeting", Type: schema.TypeString, Required: true}).
		Outcome("complete", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "complete", types.DataMap{
				"formatted_message": strings.ToUpper(in["greeting"].(string)),
			}, nil
		}).
		MustBuild()

	rt.MustRegister(greeter, formatter)
}

// =============================================================================
// 🔧 辅助输出
// =============================================================================

func printVersion() {
	fmt.Printf("hiveflow %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func printUsage() {
	fmt.Println(`hiveflow - autonomous agent pipeline framework

Usage:
  hiveflow demo [--config config.yaml] [--language es] [--name Maria]
  hiveflow version`)
}
