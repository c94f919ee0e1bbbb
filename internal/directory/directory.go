package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pyth-serum-client/internal/rpc"
	"pyth-serum-client/internal/types"
	"pyth-serum-client/pkg/logger"
)

// MarketRecord serum-ts markets.json 中的一条记录
type MarketRecord struct {
	ProgramID  types.Pubkey `json:"programId"`
	Address    types.Pubkey `json:"address"`
	Name       string       `json:"name"`
	Deprecated bool         `json:"deprecated"`
}

// Parse 解析 markets.json 内容
func Parse(data []byte) ([]MarketRecord, error) {
	var records []MarketRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDirectoryMalformed, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: expected a list of markets", types.ErrDirectoryMalformed)
	}
	for i, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: record %d has empty name", types.ErrDirectoryMalformed, i)
		}
		if r.Address.IsZero() || r.ProgramID.IsZero() {
			return nil, fmt.Errorf("%w: record %d (%s) missing address or programId", types.ErrDirectoryMalformed, i, r.Name)
		}
	}
	return records, nil
}

// Load 从本地文件加载
func Load(path string) ([]MarketRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDirectoryUnavailable, err)
	}
	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// LoadOrFetch refresh 为 true 时先下载 url 并覆盖 path，再从 path 加载。
// 下载内容必须能解析才会写入；刷新失败时回退到已有的本地文件。
func LoadOrFetch(ctx context.Context, path, url string, refresh bool, fetcher rpc.URLFetcher) ([]MarketRecord, error) {
	if refresh {
		if err := refreshFile(ctx, path, url, fetcher); err != nil {
			records, loadErr := Load(path)
			if loadErr != nil {
				return nil, err
			}
			logger.Warnf("[MarketDirectory] 刷新失败，使用本地文件 %s: %v", path, err)
			return records, nil
		}
	}
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	logger.Infof("[MarketDirectory] 加载 %d 条市场记录: %s", len(records), path)
	return records, nil
}

func refreshFile(ctx context.Context, path, url string, fetcher rpc.URLFetcher) error {
	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return errors.Join(types.ErrDirectoryUnavailable, err)
	}
	if _, err := Parse(data); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", types.ErrDirectoryUnavailable, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", types.ErrDirectoryUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", types.ErrDirectoryUnavailable, err)
	}
	logger.Infof("[MarketDirectory] 已从 %s 刷新 %s (%d bytes)", url, path, len(data))
	return nil
}
