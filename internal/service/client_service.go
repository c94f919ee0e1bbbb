package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pyth-serum-client/internal/assembly"
	"pyth-serum-client/internal/config"
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/progress"
	"pyth-serum-client/internal/resolver"
	"pyth-serum-client/internal/rpc"
	"pyth-serum-client/internal/serializer"
	"pyth-serum-client/pkg/logger"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/mr"
)

// GroupPublisher 可选的账户组下游（例如 Kafka）
type GroupPublisher interface {
	Publish(ctx context.Context, runID string, results []*MarketResult) error
}

// StatusMarker 可选的运行状态记录（例如 Redis）
type StatusMarker interface {
	Mark(ctx context.Context, rec progress.MarketRecord) error
}

// Dependencies 外部协作者，Publisher 与 Status 可以为 nil
type Dependencies struct {
	Accounts  rpc.AccountFetcher
	URLs      rpc.URLFetcher
	Publisher GroupPublisher
	Status    StatusMarker
}

type ClientService struct {
	cfg     config.ClientConfig
	deps    Dependencies
	builder *assembly.Builder
}

func NewClientService(cfg config.ClientConfig, deps Dependencies) *ClientService {
	return &ClientService{
		cfg:  cfg,
		deps: deps,
		builder: assembly.NewBuilder(deps.Accounts, assembly.Options{
			Mapping:     cfg.Mapping,
			PythProgram: cfg.PythProgram,
			Payer:       cfg.Payer,
		}),
	}
}

// Run 加载目录、筛选市场并逐个构建输出。
// 只有目录加载失败或输出目录不可用时返回 error，单个市场失败记录在报告中。
func (s *ClientService) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	records, err := directory.LoadOrFetch(ctx, s.cfg.MarketsPath, s.cfg.MarketsURL, s.cfg.RefreshMarkets, s.deps.URLs)
	if err != nil {
		return nil, fmt.Errorf("load market directory: %w", err)
	}

	selected := resolver.Resolve(records, resolver.Filter{Symbols: s.cfg.Symbols, Market: s.cfg.Market})
	report := &RunReport{RunID: runID, Results: make([]*MarketResult, len(selected))}
	if len(selected) == 0 {
		log.Warnf("[ClientService] 没有匹配的市场")
		return report, nil
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", s.cfg.OutputDir, err)
	}
	log.Infof("[ClientService] 匹配 %d 个市场, workers=%d", len(selected), s.cfg.Workers)

	mr.ForEach(func(source chan<- int) {
		for i := range selected {
			source <- i
		}
	}, func(i int) {
		report.Results[i] = s.process(ctx, selected[i])
	}, mr.WithWorkers(s.cfg.Workers), mr.WithContext(ctx))

	for i, res := range report.Results {
		if res == nil {
			report.Results[i] = &MarketResult{Record: selected[i], Err: fmt.Errorf("not processed: %w", context.Cause(ctx))}
		}
	}

	s.publish(ctx, runID, report)
	s.markStatus(ctx, runID, report)

	for _, res := range report.Results {
		if res.OK() {
			log.Infof("[ClientService] OK %s (%s) -> %v", res.Record.Name, res.Record.Address, res.Files)
		} else {
			log.Errorf("[ClientService] FAILED %s (%s): %v", res.Record.Name, res.Record.Address, res.Err)
		}
	}
	log.Infof("[ClientService] 完成: 成功 %d, 失败 %d", report.Succeeded(), report.Failed())
	return report, nil
}

func (s *ClientService) process(ctx context.Context, rec directory.MarketRecord) *MarketResult {
	res := &MarketResult{Record: rec}
	g, err := s.builder.Build(ctx, rec)
	if err != nil {
		res.Err = err
		return res
	}
	data, err := serializer.MarshalJSON(g)
	if err != nil {
		res.Err = fmt.Errorf("marshal json: %w", err)
		return res
	}

	outputs := []outputFile{{name: g.FileName() + ".json", data: data}}
	if s.cfg.IncludeBinary {
		outputs = append(outputs, outputFile{name: g.FileName() + ".bin", data: serializer.MarshalBinary(g, s.cfg.ProgramID, nil)})
	}
	files, err := writeOutputs(s.cfg.OutputDir, outputs)
	if err != nil {
		res.Err = err
		return res
	}
	res.Group, res.JSON, res.Files = g, data, files
	return res
}

type outputFile struct {
	name string
	data []byte
}

// writeOutputs 先全部写临时文件再按顺序 rename；任一步失败都删除已写出的文件
func writeOutputs(dir string, outputs []outputFile) ([]string, error) {
	var tmps, files []string
	cleanup := func() {
		for _, p := range append(tmps, files...) {
			_ = os.Remove(p)
		}
	}
	for _, out := range outputs {
		tmp := filepath.Join(dir, out.name) + ".tmp"
		if err := os.WriteFile(tmp, out.data, 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("write %s: %w", tmp, err)
		}
		tmps = append(tmps, tmp)
	}
	for len(tmps) > 0 {
		tmp := tmps[0]
		path := strings.TrimSuffix(tmp, ".tmp")
		if err := os.Rename(tmp, path); err != nil {
			cleanup()
			return nil, fmt.Errorf("rename %s: %w", path, err)
		}
		tmps = tmps[1:]
		files = append(files, path)
	}
	return files, nil
}

func (s *ClientService) publish(ctx context.Context, runID string, report *RunReport) {
	if s.deps.Publisher == nil {
		return
	}
	ok := make([]*MarketResult, 0, len(report.Results))
	for _, res := range report.Results {
		if res.OK() {
			ok = append(ok, res)
		}
	}
	if len(ok) == 0 {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, runID, ok); err != nil {
		logger.Warnf("[ClientService] 发布账户组失败: %v", err)
	}
}

func (s *ClientService) markStatus(ctx context.Context, runID string, report *RunReport) {
	if s.deps.Status == nil {
		return
	}
	for _, res := range report.Results {
		if err := s.deps.Status.Mark(ctx, res.status(runID)); err != nil {
			logger.Warnf("[ClientService] 记录状态失败 %s: %v", res.Record.Name, err)
		}
	}
}
