package svc

import (
	"context"
	"time"

	"pyth-serum-client/internal/config"
	"pyth-serum-client/internal/mq"
	"pyth-serum-client/internal/progress"
	"pyth-serum-client/internal/rpc"
	"pyth-serum-client/internal/service"
	"pyth-serum-client/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// ServiceContext 一次运行需要的外部资源
type ServiceContext struct {
	Config   config.ClientConfig
	Solana   *rpc.SolanaClient
	HTTP     *rpc.HTTPFetcher
	Producer *kafka.Producer
	Redis    *redis.Client
}

// NewServiceContext 创建 RPC 客户端；Kafka 与 Redis 为可选输出，初始化失败只告警并关闭该输出
func NewServiceContext(c config.ClientConfig) (*ServiceContext, error) {
	solana, err := rpc.NewSolanaClient(c.RpcEndpoint, c.RpcTimeout, c.RpcRetryCount)
	if err != nil {
		logger.Errorf("Solana RPC 客户端初始化失败: %v", err)
		return nil, err
	}
	ctx := &ServiceContext{
		Config: c,
		Solana: solana,
		HTTP:   rpc.NewHTTPFetcher(c.RpcTimeout),
	}

	if c.Kafka != nil {
		producer, err := mq.NewKafkaProducer(*c.Kafka)
		if err != nil {
			logger.Warnf("Kafka producer 初始化失败，关闭 Kafka 输出: %v", err)
		} else {
			ctx.Producer = producer
		}
	}

	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warnf("Redis %s 不可用，关闭状态记录: %v", c.RedisAddr, err)
			_ = rdb.Close()
		} else {
			ctx.Redis = rdb
		}
	}

	logger.Infof("服务上下文初始化完成: rpc=%s kafka=%v redis=%v", c.RpcEndpoint, ctx.Producer != nil, ctx.Redis != nil)
	return ctx, nil
}

// Dependencies 组装 ClientService 的协作者
func (ctx *ServiceContext) Dependencies() service.Dependencies {
	deps := service.Dependencies{
		Accounts: ctx.Solana,
		URLs:     ctx.HTTP,
	}
	if ctx.Producer != nil {
		deps.Publisher = service.NewKafkaPublisher(ctx.Producer, *ctx.Config.Kafka, ctx.Config.KafkaSendTimeout)
	}
	if ctx.Redis != nil {
		deps.Status = progress.NewRedisStatusStore(ctx.Redis)
	}
	return deps
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(1000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
