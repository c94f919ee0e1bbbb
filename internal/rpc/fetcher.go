package rpc

import (
	"context"

	"pyth-serum-client/internal/types"
)

// AccountFetcher 批量拉取账户；返回值与 keys 一一对应，不存在的账户为 nil
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, keys []types.Pubkey) ([]*types.AccountSnapshot, error)
}

// URLFetcher 下载远端文件
type URLFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
