// Package assemblytest 构造一套完整的链上账户，供构建与端到端测试使用
package assemblytest

import (
	"testing"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/market"
	"pyth-serum-client/internal/registry"
	"pyth-serum-client/internal/rpc/rpctest"
	"pyth-serum-client/internal/types"

	"github.com/stretchr/testify/require"
)

var (
	Mapping = consts.PythMapping
	Payer   = Key(0xEE, 0)
)

// Market 一个市场涉及的全部地址
type Market struct {
	Record     directory.MarketRecord
	Product    types.Pubkey
	Price      types.Pubkey
	Bids       types.Pubkey
	Asks       types.Pubkey
	BaseVault  types.Pubkey
	QuoteVault types.Pubkey
}

type World struct {
	Fetcher *rpctest.MemoryFetcher
	Markets []Market
}

// Key 生成确定性的测试地址
func Key(tag, n byte) types.Pubkey {
	var p types.Pubkey
	p[0] = tag
	p[1] = n
	p[31] = 0x77
	return p
}

// NewWorld 每个 name 对应一个 Serum 市场和一个 Pyth 产品，产品都在同一页 mapping 中
func NewWorld(t *testing.T, names ...string) *World {
	t.Helper()
	w := &World{Fetcher: rpctest.NewMemoryFetcher()}
	f := w.Fetcher

	f.Put(Payer, types.AccountSnapshot{Owner: consts.SystemProgram, Lamports: 1_000_000_000})
	f.Put(consts.SysvarClock, types.AccountSnapshot{Owner: consts.SysvarProgram, Data: make([]byte, 40)})
	f.Put(consts.SerumDexV3Program, types.AccountSnapshot{Owner: consts.BPFLoader2Program, Executable: true, Data: []byte{0x7f, 'E', 'L', 'F'}})
	f.Put(consts.PythProgram, types.AccountSnapshot{Owner: consts.BPFLoader2Program, Executable: true, Data: []byte{0x7f, 'E', 'L', 'F'}})

	var products []types.Pubkey
	for i, name := range names {
		n := byte(i)
		m := Market{
			Record: directory.MarketRecord{
				ProgramID: consts.SerumDexV3Program,
				Address:   Key(1, n),
				Name:      name,
			},
			Product:    Key(2, n),
			Price:      Key(3, n),
			Bids:       Key(4, n),
			Asks:       Key(5, n),
			BaseVault:  Key(6, n),
			QuoteVault: Key(7, n),
		}

		nonce, signer, err := market.FindVaultSignerNonce(m.Record.Address, m.Record.ProgramID)
		require.NoError(t, err)
		data, err := market.Encode(&market.State{
			AccountFlags:     market.FlagInitialized | market.FlagMarket,
			OwnAddress:       m.Record.Address,
			VaultSignerNonce: nonce,
			VaultSigner:      signer,
			BaseMint:         Key(8, n),
			QuoteMint:        Key(9, n),
			BaseVault:        m.BaseVault,
			QuoteVault:       m.QuoteVault,
			RequestQueue:     Key(10, n),
			EventQueue:       Key(11, n),
			Bids:             m.Bids,
			Asks:             m.Asks,
			BaseLotSize:      100000000,
			QuoteLotSize:     100,
			FeeRateBps:       22,
		})
		require.NoError(t, err)
		f.Put(m.Record.Address, types.AccountSnapshot{Owner: m.Record.ProgramID, Data: data, Lamports: 2_000_000})

		product, err := registry.EncodeProduct(m.Price, []registry.Attribute{
			{Key: "asset_type", Value: "Crypto"},
			{Key: "symbol", Value: name},
		})
		require.NoError(t, err)
		f.Put(m.Product, types.AccountSnapshot{Owner: consts.PythProgram, Data: product})
		f.Put(m.Price, types.AccountSnapshot{Owner: consts.PythProgram, Data: make([]byte, 3312)})

		f.Put(m.Bids, types.AccountSnapshot{Owner: m.Record.ProgramID, Data: []byte("serum-bids")})
		f.Put(m.Asks, types.AccountSnapshot{Owner: m.Record.ProgramID, Data: []byte("serum-asks")})
		f.Put(m.BaseVault, types.AccountSnapshot{Owner: consts.TokenProgram, Data: make([]byte, 165)})
		f.Put(m.QuoteVault, types.AccountSnapshot{Owner: consts.TokenProgram, Data: make([]byte, 165)})

		products = append(products, m.Product)
		w.Markets = append(w.Markets, m)
	}

	page, err := registry.EncodePage(products, types.Pubkey{})
	require.NoError(t, err)
	f.Put(Mapping, types.AccountSnapshot{Owner: consts.PythProgram, Data: page})
	return w
}

// Records 世界中所有市场的目录记录
func (w *World) Records() []directory.MarketRecord {
	out := make([]directory.MarketRecord, 0, len(w.Markets))
	for _, m := range w.Markets {
		out = append(out, m.Record)
	}
	return out
}

// SetOwner 修改某个账户的 owner
func (w *World) SetOwner(t *testing.T, key, owner types.Pubkey) {
	t.Helper()
	snap, ok := w.Fetcher.Get(key)
	require.True(t, ok, "account %s not in world", key)
	snap.Owner = owner
	w.Fetcher.Put(key, snap)
}
