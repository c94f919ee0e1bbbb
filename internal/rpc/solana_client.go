package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/types"
	"pyth-serum-client/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
)

// SolanaClient 基于 blocto RPC 客户端的 AccountFetcher，无状态，可并发复用
type SolanaClient struct {
	client     *client.Client
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
}

func NewSolanaClient(endpoint string, timeout time.Duration, retryCount int) (*SolanaClient, error) {
	c := client.NewClient(endpoint)
	if c == nil {
		return nil, errors.New("rpc client init failed")
	}
	return &SolanaClient{
		client:     c,
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: 500 * time.Millisecond,
	}, nil
}

func (s *SolanaClient) GetMultipleAccounts(ctx context.Context, keys []types.Pubkey) ([]*types.AccountSnapshot, error) {
	result := make([]*types.AccountSnapshot, 0, len(keys))
	for start := 0; start < len(keys); start += consts.MaxAccountsPerRequest {
		end := min(start+consts.MaxAccountsPerRequest, len(keys))
		chunk, err := s.fetchChunk(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, chunk...)
	}
	return result, nil
}

func (s *SolanaClient) fetchChunk(ctx context.Context, keys []types.Pubkey) ([]*types.AccountSnapshot, error) {
	addrs := types.PubkeysToBase58(keys)

	var lastErr error
	for i := 0; i <= s.retryCount; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", types.ErrTransportFailure, ctx.Err())
			case <-time.After(s.retryDelay):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		start := time.Now()
		infos, err := s.client.GetMultipleAccounts(callCtx, addrs)
		cancel()
		if err != nil {
			lastErr = err
			logger.Warnf("[SolanaClient] 第 %d 次 GetMultipleAccounts 失败, 账户数: %d, err: %v", i+1, len(addrs), err)
			continue
		}
		if len(infos) != len(addrs) {
			return nil, fmt.Errorf("%w: 返回账户数与请求不一致: got=%d want=%d", types.ErrTransportFailure, len(infos), len(addrs))
		}
		logger.Debugf("[SolanaClient] GetMultipleAccounts 成功, 账户数: %d, 耗时: %v", len(addrs), time.Since(start))

		snapshots := make([]*types.AccountSnapshot, len(infos))
		for j, info := range infos {
			snapshots[j] = toSnapshot(keys[j], info)
		}
		return snapshots, nil
	}
	return nil, fmt.Errorf("%w: GetMultipleAccounts failed after %d attempts: %v", types.ErrTransportFailure, s.retryCount+1, lastErr)
}

// toSnapshot SDK 对不存在的账户返回零值 AccountInfo；存活账户的 lamports 必然大于 0
func toSnapshot(key types.Pubkey, info client.AccountInfo) *types.AccountSnapshot {
	if info.Lamports == 0 && len(info.Data) == 0 {
		return nil
	}
	return &types.AccountSnapshot{
		AccountRef: types.AccountRef{Key: key},
		Owner:      types.Pubkey(info.Owner),
		Lamports:   info.Lamports,
		Data:       info.Data,
		Executable: info.Executable,
		RentEpoch:  info.RentEpoch,
	}
}
