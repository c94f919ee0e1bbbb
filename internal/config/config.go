package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/mq"
	"pyth-serum-client/internal/types"
	"pyth-serum-client/pkg/logger"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 可选的 Kafka 输出，Brokers 为空则不启用
type KafkaProducerConfig struct {
	Brokers    string `yaml:"brokers"`      // Kafka broker 地址，多个用英文逗号分隔
	BatchSize  int    `yaml:"batch_size"`   // 批处理大小（单位字节）
	LingerMs   int    `yaml:"linger_ms"`    // 批处理最大延迟（毫秒）
	Topic      string `yaml:"topic"`        // 账户组 JSON 的 topic
	Partitions int    `yaml:"partitions"`   // topic 分区数
	SendTimeMs int    `yaml:"send_time_ms"` // 单条消息等待 ack 的超时（毫秒）
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:    c.Brokers,
		BatchSize:  c.BatchSize,
		LingerMs:   c.LingerMs,
		Topic:      c.Topic,
		Partitions: c.Partitions,
	}
}

// RpcConfig Solana RPC 访问配置
type RpcConfig struct {
	Endpoint   string `yaml:"endpoint"`    // RPC 地址
	TimeoutMs  int    `yaml:"timeout_ms"`  // 单次请求超时（毫秒）
	RetryCount int    `yaml:"retry_count"` // 传输失败时的重试次数
}

// MarketsConfig markets.json 来源
type MarketsConfig struct {
	Path    string `yaml:"path"`    // 本地文件路径
	URL     string `yaml:"url"`     // 远端地址
	Refresh bool   `yaml:"refresh"` // 是否先从远端刷新本地文件
}

// Config 文件 + 环境变量 + 命令行合并后的原始配置
type Config struct {
	LogConf           LogConfig           `yaml:"logger"`
	RpcConf           RpcConfig           `yaml:"rpc"`
	MarketsConf       MarketsConfig       `yaml:"markets"`
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"`
	RedisAddr         string              `yaml:"redis_addr"` // Redis 地址，为空则不记录运行状态

	Symbols       []string `yaml:"symbols"`        // 例如 SOL/USD，为空表示全部
	Market        string   `yaml:"market"`         // 可选：Serum 市场地址
	Mapping       string   `yaml:"mapping"`        // Pyth mapping 根账户
	PythProgram   string   `yaml:"pyth_program"`   // Pyth 预言机程序
	Payer         string   `yaml:"payer"`          // 付款账户（signer）
	ProgramID     string   `yaml:"program_id"`     // serum-pyth 程序地址，用于二进制输出
	OutputDir     string   `yaml:"output_dir"`     // 输出目录
	IncludeBinary bool     `yaml:"include_binary"` // 是否输出 .bin
	Workers       int      `yaml:"workers"`        // 并发处理的市场数
}

// Default 返回带默认值的配置
func Default() Config {
	return Config{
		LogConf: LogConfig{Format: "console", Level: "info"},
		RpcConf: RpcConfig{
			Endpoint:   consts.DefaultRpcURL,
			TimeoutMs:  10000,
			RetryCount: 2,
		},
		MarketsConf: MarketsConfig{
			Path: consts.DefaultMarketsJSON,
			URL:  consts.DefaultMarketsURL,
		},
		KafkaProducerConf: KafkaProducerConfig{
			Topic:      "serum-pyth-accounts",
			Partitions: 1,
			SendTimeMs: 5000,
		},
		Mapping:     consts.PythMappingStr,
		PythProgram: consts.PythProgramStr,
		ProgramID:   consts.SystemProgramStr,
		OutputDir:   consts.DefaultOutputDir,
		Workers:     4,
	}
}

// Load 在默认值基础上叠加 yaml 文件；path 为空时只返回默认值
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

const envPrefix = "PYTH_SERUM_"

// ApplyEnv 用 PYTH_SERUM_* 环境变量覆盖配置，只在进程边界调用
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("RPC_URL", &c.RpcConf.Endpoint)
	str("MAPPING", &c.Mapping)
	str("PYTH_PROGRAM", &c.PythProgram)
	str("PAYER", &c.Payer)
	str("PROGRAM_ID", &c.ProgramID)
	str("MARKETS_JSON", &c.MarketsConf.Path)
	str("MARKETS_URL", &c.MarketsConf.URL)
	str("OUTPUT_DIR", &c.OutputDir)
	str("REDIS_ADDR", &c.RedisAddr)
	str("KAFKA_BROKERS", &c.KafkaProducerConf.Brokers)
	str("LOG_LEVEL", &c.LogConf.Level)

	if v, ok := lookup(envPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", envPrefix, err)
		}
		c.Workers = n
	}
	return nil
}

// ClientConfig 校验后的配置，按值传入核心逻辑
type ClientConfig struct {
	Symbols       []string
	Market        *types.Pubkey
	Mapping       types.Pubkey
	PythProgram   types.Pubkey
	Payer         types.Pubkey
	ProgramID     types.Pubkey
	OutputDir     string
	IncludeBinary bool
	Workers       int

	RpcEndpoint   string
	RpcTimeout    time.Duration
	RpcRetryCount int

	MarketsPath    string
	MarketsURL     string
	RefreshMarkets bool

	Kafka            *mq.KafkaProducerOption // nil 表示不输出到 Kafka
	KafkaSendTimeout time.Duration
	RedisAddr        string
}

// Validate 解析地址并检查必填项
func (c *Config) Validate() (ClientConfig, error) {
	var errs []error
	parse := func(name, s string) types.Pubkey {
		pk, err := types.TryPubkeyFromBase58(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return pk
	}

	cc := ClientConfig{
		Symbols:        dedupSymbols(c.Symbols),
		Mapping:        parse("mapping", c.Mapping),
		PythProgram:    parse("pyth_program", c.PythProgram),
		ProgramID:      parse("program_id", c.ProgramID),
		OutputDir:      c.OutputDir,
		IncludeBinary:  c.IncludeBinary,
		Workers:        c.Workers,
		RpcEndpoint:    c.RpcConf.Endpoint,
		RpcTimeout:     time.Duration(c.RpcConf.TimeoutMs) * time.Millisecond,
		RpcRetryCount:  c.RpcConf.RetryCount,
		MarketsPath:    c.MarketsConf.Path,
		MarketsURL:     c.MarketsConf.URL,
		RefreshMarkets: c.MarketsConf.Refresh,
	}
	if c.Payer == "" {
		errs = append(errs, errors.New("payer: required"))
	} else {
		cc.Payer = parse("payer", c.Payer)
	}
	if c.Market != "" {
		m := parse("market", c.Market)
		cc.Market = &m
	}
	if cc.RpcEndpoint == "" {
		errs = append(errs, errors.New("rpc endpoint: required"))
	}
	if cc.MarketsPath == "" {
		errs = append(errs, errors.New("markets path: required"))
	}
	if cc.RefreshMarkets && cc.MarketsURL == "" {
		errs = append(errs, errors.New("markets url: required when refresh is set"))
	}
	if cc.OutputDir == "" {
		errs = append(errs, errors.New("output dir: required"))
	}
	if c.KafkaProducerConf.Enabled() {
		opt := c.KafkaProducerConf.ToKafkaOption()
		if opt.Topic == "" {
			errs = append(errs, errors.New("kafka topic: required when brokers are set"))
		}
		cc.Kafka = &opt
		cc.KafkaSendTimeout = time.Duration(c.KafkaProducerConf.SendTimeMs) * time.Millisecond
		if cc.KafkaSendTimeout <= 0 {
			cc.KafkaSendTimeout = 5 * time.Second
		}
	}
	cc.RedisAddr = strings.TrimSpace(c.RedisAddr)
	if cc.Workers <= 0 {
		cc.Workers = 1
	}
	if cc.RpcTimeout <= 0 {
		cc.RpcTimeout = 10 * time.Second
	}
	if cc.RpcRetryCount < 0 {
		cc.RpcRetryCount = 0
	}
	if len(errs) > 0 {
		return ClientConfig{}, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return cc, nil
}

// Warnings 合法但可能不符合预期的配置，由调用方在 logger 初始化后输出
func (c ClientConfig) Warnings() []string {
	var out []string
	if c.IncludeBinary && c.ProgramID.IsZero() {
		out = append(out, "program_id 未设置，.bin 末尾的程序地址为 System program (全零)")
	}
	return out
}

// dedupSymbols 去重并保持输入顺序
func dedupSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
