package registry

import (
	"context"
	"fmt"

	"pyth-serum-client/internal/rpc"
	"pyth-serum-client/internal/types"
	"pyth-serum-client/pkg/logger"
)

// Walker 沿 mapping 链表查找产品。每次查找都重新拉取所有页，不缓存链表结构。
type Walker struct {
	fetcher rpc.AccountFetcher
}

func NewWalker(fetcher rpc.AccountFetcher) *Walker {
	return &Walker{fetcher: fetcher}
}

// FindProduct 按页序、页内序返回第一个 symbol 属性等于 symbol 的产品。
// 注册表若存在重复 symbol，以最早插入的为准。
func (w *Walker) FindProduct(ctx context.Context, root types.Pubkey, symbol string) (*ProductEntry, error) {
	visited := make(map[types.Pubkey]struct{})
	addr := root
	for pageNum := 1; ; pageNum++ {
		if _, ok := visited[addr]; ok {
			return nil, fmt.Errorf("%w: page %d (%s) links back to a visited page", types.ErrRegistryCorrupt, pageNum, addr)
		}
		visited[addr] = struct{}{}

		page, err := w.fetchPage(ctx, addr)
		if err != nil {
			return nil, err
		}
		products, err := w.fetchProducts(ctx, page.Products)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			if p.Symbol() == symbol {
				logger.Debugf("[PriceRegistryWalker] %s -> product=%s price=%s (page %d)", symbol, p.Address, p.PriceAccount, pageNum)
				return p, nil
			}
		}

		if page.Next.IsZero() {
			return nil, fmt.Errorf("%w: %q after %d pages", types.ErrSymbolNotFound, symbol, pageNum)
		}
		addr = page.Next
	}
}

func (w *Walker) fetchPage(ctx context.Context, addr types.Pubkey) (*Page, error) {
	snaps, err := w.fetcher.GetMultipleAccounts(ctx, []types.Pubkey{addr})
	if err != nil {
		return nil, fmt.Errorf("fetch mapping %s: %w", addr, err)
	}
	if len(snaps) != 1 || snaps[0] == nil {
		return nil, fmt.Errorf("%w: mapping account %s does not exist", types.ErrRegistryCorrupt, addr)
	}
	page, err := DecodePage(snaps[0].Data)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping %s: %v", types.ErrRegistryCorrupt, addr, err)
	}
	return page, nil
}

// fetchProducts 一页的产品账户在一次批量请求内拉取
func (w *Walker) fetchProducts(ctx context.Context, keys []types.Pubkey) ([]*ProductEntry, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	snaps, err := w.fetcher.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %d products: %w", len(keys), err)
	}
	if len(snaps) != len(keys) {
		return nil, fmt.Errorf("%w: got %d product accounts, want %d", types.ErrTransportFailure, len(snaps), len(keys))
	}

	products := make([]*ProductEntry, len(keys))
	for i, snap := range snaps {
		if snap == nil {
			return nil, fmt.Errorf("%w: product account %s does not exist", types.ErrRegistryCorrupt, keys[i])
		}
		p, err := DecodeProduct(keys[i], snap.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s: %v", types.ErrRegistryCorrupt, keys[i], err)
		}
		products[i] = p
	}
	return products, nil
}
