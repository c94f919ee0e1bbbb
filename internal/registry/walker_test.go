package registry

import (
	"context"
	"errors"
	"testing"

	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/rpc/rpctest"
	"pyth-serum-client/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(tag byte, n byte) types.Pubkey {
	var p types.Pubkey
	p[0] = tag
	p[1] = n
	p[31] = 0xAA
	return p
}

const (
	tagPage    = 1
	tagProduct = 2
	tagPrice   = 3
)

type chain struct {
	fetcher *rpctest.MemoryFetcher
	pages   []types.Pubkey
}

// buildChain 每个内层切片对应一页，元素为 symbol
func buildChain(t *testing.T, pages [][]string) *chain {
	t.Helper()
	c := &chain{fetcher: rpctest.NewMemoryFetcher()}
	for i := range pages {
		c.pages = append(c.pages, key(tagPage, byte(i)))
	}

	n := byte(0)
	for i, symbols := range pages {
		var products []types.Pubkey
		for _, sym := range symbols {
			prod, price := key(tagProduct, n), key(tagPrice, n)
			n++
			data, err := EncodeProduct(price, []Attribute{
				{Key: "asset_type", Value: "Crypto"},
				{Key: "symbol", Value: sym},
			})
			require.NoError(t, err)
			c.fetcher.Put(prod, types.AccountSnapshot{Owner: consts.PythProgram, Data: data})
			products = append(products, prod)
		}

		var next types.Pubkey
		if i+1 < len(pages) {
			next = c.pages[i+1]
		}
		data, err := EncodePage(products, next)
		require.NoError(t, err)
		c.fetcher.Put(c.pages[i], types.AccountSnapshot{Owner: consts.PythProgram, Data: data})
	}
	return c
}

func (c *chain) pageFetches() []int {
	out := make([]int, len(c.pages))
	for i, p := range c.pages {
		out[i] = c.fetcher.CallsContaining(p)
	}
	return out
}

func TestDecodePage_RoundTrip(t *testing.T) {
	products := []types.Pubkey{key(tagProduct, 1), key(tagProduct, 2)}
	data, err := EncodePage(products, key(tagPage, 9))
	require.NoError(t, err)
	assert.Len(t, data, MappingAccountSize)

	page, err := DecodePage(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), page.Num)
	assert.Equal(t, products, page.Products)
	assert.Equal(t, key(tagPage, 9), page.Next)
}

func TestDecodePage_Corrupt(t *testing.T) {
	good, err := EncodePage([]types.Pubkey{key(tagProduct, 1)}, types.Pubkey{})
	require.NoError(t, err)

	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}
	tests := map[string][]byte{
		"short":        good[:10],
		"bad magic":    mutate(func(b []byte) { b[0] = 0 }),
		"bad version":  mutate(func(b []byte) { b[4] = 1 }),
		"product type": mutate(func(b []byte) { b[8] = byte(AccountTypeProduct) }),
		"num too big":  mutate(func(b []byte) { b[16], b[17] = 0xff, 0xff }),
		"num > size":   mutate(func(b []byte) { b[16] = 3 }),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePage(data)
			assert.Error(t, err)
		})
	}
}

func TestDecodeProduct(t *testing.T) {
	data, err := EncodeProduct(key(tagPrice, 7), []Attribute{
		{Key: "symbol", Value: "SOL/USD"},
		{Key: "quote_currency", Value: "USD"},
	})
	require.NoError(t, err)

	p, err := DecodeProduct(key(tagProduct, 7), data)
	require.NoError(t, err)
	assert.Equal(t, "SOL/USD", p.Symbol())
	assert.Equal(t, key(tagPrice, 7), p.PriceAccount)
	q, ok := p.Attr("quote_currency")
	assert.True(t, ok)
	assert.Equal(t, "USD", q)

	// 属性长度越界
	bad := append([]byte(nil), data...)
	bad[productHeaderSize] = 200
	_, err = DecodeProduct(key(tagProduct, 7), bad)
	assert.Error(t, err)
}

func TestFindProduct_ThirdPage(t *testing.T) {
	c := buildChain(t, [][]string{
		{"BTC/USD", "ETH/USD"},
		{"SRM/USD"},
		{"USDT/USD", "SOL/USD"},
	})

	p, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "SOL/USD")
	require.NoError(t, err)
	assert.Equal(t, key(tagPrice, 4), p.PriceAccount)
	assert.Equal(t, []int{1, 1, 1}, c.pageFetches(), "each page fetched exactly once")
}

func TestFindProduct_StopsAtFirstMatch(t *testing.T) {
	c := buildChain(t, [][]string{
		{"BTC/USD", "SOL/USD"},
		{"SOL/USD"},
	})

	p, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "SOL/USD")
	require.NoError(t, err)
	assert.Equal(t, key(tagPrice, 1), p.PriceAccount, "earliest entry wins")
	assert.Equal(t, []int{1, 0}, c.pageFetches())
}

func TestFindProduct_NotFound(t *testing.T) {
	c := buildChain(t, [][]string{{"BTC/USD"}, {}, {"ETH/USD"}})

	_, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "sol/usd")
	assert.True(t, errors.Is(err, types.ErrSymbolNotFound), "got %v", err)
	assert.Equal(t, []int{1, 1, 1}, c.pageFetches())
}

func TestFindProduct_MissingLinkedPage(t *testing.T) {
	c := buildChain(t, [][]string{{"BTC/USD"}, {"SOL/USD"}})
	c.fetcher.Delete(c.pages[1])

	_, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "SOL/USD")
	assert.True(t, errors.Is(err, types.ErrRegistryCorrupt), "got %v", err)
	assert.False(t, errors.Is(err, types.ErrSymbolNotFound))
}

func TestFindProduct_Cycle(t *testing.T) {
	c := buildChain(t, [][]string{{"BTC/USD"}, {"ETH/USD"}})
	data, err := EncodePage(nil, c.pages[0])
	require.NoError(t, err)
	c.fetcher.Put(c.pages[1], types.AccountSnapshot{Owner: consts.PythProgram, Data: data})

	_, err = NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "SOL/USD")
	assert.True(t, errors.Is(err, types.ErrRegistryCorrupt), "got %v", err)
	assert.Equal(t, []int{1, 1}, c.pageFetches())
}

func TestFindProduct_MissingProduct(t *testing.T) {
	c := buildChain(t, [][]string{{"BTC/USD"}})
	c.fetcher.Delete(key(tagProduct, 0))

	_, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "BTC/USD")
	assert.True(t, errors.Is(err, types.ErrRegistryCorrupt))
}

func TestFindProduct_TransportFailure(t *testing.T) {
	c := buildChain(t, [][]string{{"BTC/USD"}})
	c.fetcher.FailOn(c.pages[0], types.ErrTransportFailure)

	_, err := NewWalker(c.fetcher).FindProduct(context.Background(), c.pages[0], "BTC/USD")
	assert.True(t, errors.Is(err, types.ErrTransportFailure))
}
