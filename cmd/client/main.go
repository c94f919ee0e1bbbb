package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"pyth-serum-client/internal/config"
	"pyth-serum-client/internal/service"
	"pyth-serum-client/internal/svc"
	"pyth-serum-client/pkg/logger"

	"github.com/joho/godotenv"
)

// symbolList 可重复的 --symbol 参数
type symbolList []string

func (s *symbolList) String() string {
	return strings.Join(*s, ",")
}

func (s *symbolList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

var (
	configFile   = flag.String("f", "", "the config file (yaml)")
	envFile      = flag.String("env", ".env", "dotenv file, ignored when missing")
	outDir       = flag.String("outdir", "", "output directory for <name>.json and <name>.bin")
	binary       = flag.Bool("binary", false, "also write the BPF program input serialization")
	market       = flag.String("market", "", "serum market address, overrides --symbol")
	mapping      = flag.String("mapping", "", "pyth mapping account (registry root)")
	rpcURL       = flag.String("rpc", "", "solana rpc endpoint")
	marketsJSON  = flag.String("markets-json", "", "local serum markets.json")
	marketsURL   = flag.String("markets-url", "", "url to refresh markets.json from")
	fetchMarkets = flag.Bool("fetch-markets", false, "download markets.json before loading")
	payer        = flag.String("payer", "", "payer account (signer, writable)")
	programID    = flag.String("program-id", "", "program id appended to the binary output")
	pythProgram  = flag.String("pyth-program", "", "pyth oracle program")
	symbols      symbolList
)

func main() {
	flag.Var(&symbols, "symbol", "market name such as SOL/USD (repeatable)")
	flag.Parse()
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			code = 2
		}
		logger.Sync()
	}()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		return 1
	}

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	applyFlags(&c)

	cc, err := c.Validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, w := range cc.Warnings() {
		logger.Warnf("[Config] %s", w)
	}

	serviceContext, err := svc.NewServiceContext(cc)
	if err != nil {
		return 1
	}
	defer serviceContext.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := service.NewClientService(cc, serviceContext.Dependencies()).Run(ctx)
	if err != nil {
		logger.Errorf("运行失败: %v", err)
		return 1
	}
	logger.Infof("run %s: %d 成功, %d 失败", report.RunID, report.Succeeded(), report.Failed())
	return 0
}

// applyFlags 只覆盖命令行上显式给出的参数
func applyFlags(c *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "outdir":
			c.OutputDir = *outDir
		case "binary":
			c.IncludeBinary = *binary
		case "symbol":
			c.Symbols = symbols
		case "market":
			c.Market = *market
		case "mapping":
			c.Mapping = *mapping
		case "rpc":
			c.RpcConf.Endpoint = *rpcURL
		case "markets-json":
			c.MarketsConf.Path = *marketsJSON
		case "markets-url":
			c.MarketsConf.URL = *marketsURL
		case "fetch-markets":
			c.MarketsConf.Refresh = *fetchMarkets
		case "payer":
			c.Payer = *payer
		case "program-id":
			c.ProgramID = *programID
		case "pyth-program":
			c.PythProgram = *pythProgram
		}
	})
}
