package service

import (
	"pyth-serum-client/internal/assembly"
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/progress"
)

// MarketResult 单个市场的处理结果；Err 非空时 Group 与 Files 为空
type MarketResult struct {
	Record directory.MarketRecord
	Group  *assembly.AccountGroup
	JSON   []byte
	Files  []string
	Err    error
}

func (r *MarketResult) OK() bool {
	return r.Err == nil
}

func (r *MarketResult) status(runID string) progress.MarketRecord {
	rec := progress.MarketRecord{
		Address: r.Record.Address.String(),
		Name:    r.Record.Name,
		RunID:   runID,
		Status:  progress.StatusBuilt,
	}
	if r.Err != nil {
		rec.Status = progress.StatusFailed
		rec.Error = r.Err.Error()
	}
	return rec
}

// RunReport 一次运行的汇总，Results 与目录顺序一致
type RunReport struct {
	RunID   string
	Results []*MarketResult
}

func (r *RunReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r *RunReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}
