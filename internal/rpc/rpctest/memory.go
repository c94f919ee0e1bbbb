// Package rpctest 提供内存版 AccountFetcher，用于测试
package rpctest

import (
	"context"
	"sync"

	"pyth-serum-client/internal/types"
)

type MemoryFetcher struct {
	mu       sync.Mutex
	accounts map[types.Pubkey]types.AccountSnapshot
	calls    [][]types.Pubkey
	failOn   map[types.Pubkey]error
}

func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{
		accounts: make(map[types.Pubkey]types.AccountSnapshot),
		failOn:   make(map[types.Pubkey]error),
	}
}

// Put 写入账户，snap.Key 会被设置为 key
func (m *MemoryFetcher) Put(key types.Pubkey, snap types.AccountSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.Key = key
	if snap.Lamports == 0 {
		snap.Lamports = 1
	}
	m.accounts[key] = snap
}

// Get 读取账户，不计入请求记录
func (m *MemoryFetcher) Get(key types.Pubkey) (types.AccountSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.accounts[key]
	return snap, ok
}

func (m *MemoryFetcher) Delete(key types.Pubkey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, key)
}

// FailOn 请求中包含 key 时返回 err
func (m *MemoryFetcher) FailOn(key types.Pubkey, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[key] = err
}

func (m *MemoryFetcher) GetMultipleAccounts(_ context.Context, keys []types.Pubkey) ([]*types.AccountSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]types.Pubkey(nil), keys...))
	for _, k := range keys {
		if err, ok := m.failOn[k]; ok {
			return nil, err
		}
	}
	out := make([]*types.AccountSnapshot, len(keys))
	for i, k := range keys {
		if snap, ok := m.accounts[k]; ok {
			cp := snap
			cp.Data = append([]byte(nil), snap.Data...)
			out[i] = &cp
		}
	}
	return out, nil
}

// Calls 返回所有请求的地址列表
func (m *MemoryFetcher) Calls() [][]types.Pubkey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]types.Pubkey(nil), m.calls...)
}

// CallsContaining 统计包含 key 的请求次数
func (m *MemoryFetcher) CallsContaining(key types.Pubkey) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.calls {
		for _, k := range call {
			if k == key {
				n++
				break
			}
		}
	}
	return n
}
