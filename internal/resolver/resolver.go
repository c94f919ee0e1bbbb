package resolver

import (
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/types"
)

// Filter 用户请求的市场范围
type Filter struct {
	Symbols []string      // 精确匹配 MarketRecord.Name，区分大小写
	Market  *types.Pubkey // 设置后只按地址匹配，忽略 Symbols
}

// MatchAll 两个条件都为空时匹配全部未废弃市场
func (f Filter) MatchAll() bool {
	return f.Market == nil && len(f.Symbols) == 0
}

func (f Filter) symbolSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.Symbols))
	for _, s := range f.Symbols {
		set[s] = struct{}{}
	}
	return set
}

func match(r *directory.MarketRecord, f Filter, symbols map[string]struct{}) bool {
	if r.Deprecated {
		return false
	}
	switch {
	case f.Market != nil:
		return r.Address == *f.Market
	case f.MatchAll():
		return true
	default:
		_, ok := symbols[r.Name]
		return ok
	}
}

// Resolve 按目录顺序返回匹配的市场，按市场地址去重（保留首条）
func Resolve(records []directory.MarketRecord, f Filter) []directory.MarketRecord {
	symbols := f.symbolSet()
	seen := make(map[types.Pubkey]struct{})
	var result []directory.MarketRecord
	for i := range records {
		r := &records[i]
		if !match(r, f, symbols) {
			continue
		}
		if _, dup := seen[r.Address]; dup {
			continue
		}
		seen[r.Address] = struct{}{}
		result = append(result, *r)
	}
	return result
}
