package assembly

import (
	"context"
	"fmt"
	"slices"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/market"
	"pyth-serum-client/internal/registry"
	"pyth-serum-client/internal/rpc"
	"pyth-serum-client/internal/types"
	"pyth-serum-client/pkg/logger"
)

type Options struct {
	Mapping     types.Pubkey // Pyth mapping 根账户
	PythProgram types.Pubkey
	Payer       types.Pubkey
}

// slotRule 槽位的调用角色与期望 owner
type slotRule struct {
	signer     bool
	writable   bool
	owners     []types.Pubkey
	executable bool
}

type Builder struct {
	fetcher rpc.AccountFetcher
	walker  *registry.Walker
	opt     Options
}

func NewBuilder(fetcher rpc.AccountFetcher, opt Options) *Builder {
	return &Builder{
		fetcher: fetcher,
		walker:  registry.NewWalker(fetcher),
		opt:     opt,
	}
}

func (b *Builder) rules(rec directory.MarketRecord) [SlotCount]slotRule {
	dex := []types.Pubkey{rec.ProgramID}
	return [SlotCount]slotRule{
		SlotPayer:        {signer: true, writable: true, owners: []types.Pubkey{consts.SystemProgram}},
		SlotPythPrice:    {owners: []types.Pubkey{b.opt.PythProgram}},
		SlotSerumProgram: {owners: consts.BPFLoaders, executable: true},
		SlotSerumMarket:  {owners: dex},
		SlotSerumBids:    {owners: dex},
		SlotSerumAsks:    {owners: dex},
		SlotQuoteToken:   {owners: []types.Pubkey{consts.TokenProgram}},
		SlotBaseToken:    {owners: []types.Pubkey{consts.TokenProgram}},
		SlotSysvarClock:  {owners: []types.Pubkey{consts.SysvarProgram}},
		SlotPythProgram:  {owners: consts.BPFLoaders, executable: true},
	}
}

// Build 为一个市场构建 AccountGroup：先拉取并解码市场账户、查找价格账户，
// 然后一次批量拉取其余全部账户并逐槽校验。任何一步失败都不返回部分结果。
func (b *Builder) Build(ctx context.Context, rec directory.MarketRecord) (*AccountGroup, error) {
	rules := b.rules(rec)

	snaps, err := b.fetcher.GetMultipleAccounts(ctx, []types.Pubkey{rec.Address})
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", rec.Address, err)
	}
	if len(snaps) != 1 {
		return nil, fmt.Errorf("%w: got %d accounts, want 1", types.ErrTransportFailure, len(snaps))
	}
	marketSnap, err := checkSlot(SlotSerumMarket, rec.Address, snaps[0], rules[SlotSerumMarket])
	if err != nil {
		return nil, err
	}

	state, err := market.Decode(marketSnap.Data, rec.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", rec.Address, err)
	}

	product, err := b.walker.FindProduct(ctx, b.opt.Mapping, rec.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve price account for %q: %w", rec.Name, err)
	}

	g := &AccountGroup{Record: rec, Market: state, Product: product}
	g.Accounts[SlotSerumMarket] = *marketSnap

	keys := [SlotCount]types.Pubkey{
		SlotPayer:        b.opt.Payer,
		SlotPythPrice:    product.PriceAccount,
		SlotSerumProgram: rec.ProgramID,
		SlotSerumMarket:  rec.Address,
		SlotSerumBids:    state.Bids,
		SlotSerumAsks:    state.Asks,
		SlotQuoteToken:   state.QuoteVault,
		SlotBaseToken:    state.BaseVault,
		SlotSysvarClock:  consts.SysvarClock,
		SlotPythProgram:  b.opt.PythProgram,
	}

	var pending []Slot
	var pendingKeys []types.Pubkey
	for s := Slot(0); s < SlotCount; s++ {
		if s == SlotSerumMarket {
			continue
		}
		pending = append(pending, s)
		pendingKeys = append(pendingKeys, keys[s])
	}

	fetched, err := b.fetcher.GetMultipleAccounts(ctx, pendingKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch %d group accounts: %w", len(pendingKeys), err)
	}
	if len(fetched) != len(pendingKeys) {
		return nil, fmt.Errorf("%w: got %d accounts, want %d", types.ErrTransportFailure, len(fetched), len(pendingKeys))
	}
	for i, s := range pending {
		snap, err := checkSlot(s, keys[s], fetched[i], rules[s])
		if err != nil {
			return nil, err
		}
		g.Accounts[s] = *snap
	}

	logger.Debugf("[AccountGroupBuilder] %s: market=%s price=%s", rec.Name, rec.Address, product.PriceAccount)
	return g, nil
}

// checkSlot 校验存在性、owner 与可执行标记，并写入调用角色
func checkSlot(s Slot, key types.Pubkey, snap *types.AccountSnapshot, rule slotRule) (*types.AccountSnapshot, error) {
	if snap == nil {
		return nil, &types.SlotError{Slot: s.String(), Key: key, Err: types.ErrAccountMissing}
	}
	if !slices.Contains(rule.owners, snap.Owner) {
		return nil, &types.SlotError{
			Slot: s.String(),
			Key:  key,
			Err:  fmt.Errorf("%w: owner %s", types.ErrUnexpectedOwner, snap.Owner),
		}
	}
	if rule.executable && !snap.Executable {
		return nil, &types.SlotError{
			Slot: s.String(),
			Key:  key,
			Err:  fmt.Errorf("%w: program account is not executable", types.ErrUnexpectedOwner),
		}
	}

	out := *snap
	out.Key = key
	out.IsSigner = rule.signer
	out.IsWritable = rule.writable
	return &out, nil
}
