package assembly

import (
	"strings"

	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/market"
	"pyth-serum-client/internal/registry"
	"pyth-serum-client/internal/types"
)

// Slot serum-pyth 程序输入账户的位置。顺序即二进制输出顺序，不可调整。
type Slot int

const (
	SlotPayer Slot = iota
	SlotPythPrice
	SlotSerumProgram
	SlotSerumMarket
	SlotSerumBids
	SlotSerumAsks
	SlotQuoteToken
	SlotBaseToken
	SlotSysvarClock
	SlotPythProgram

	SlotCount
)

var slotNames = [SlotCount]string{
	"payer",
	"pyth_price",
	"serum_program",
	"serum_market",
	"serum_bids",
	"serum_asks",
	"quote_token",
	"base_token",
	"sysvar_clock",
	"pyth_program",
}

func (s Slot) String() string {
	if s >= 0 && s < SlotCount {
		return slotNames[s]
	}
	return "unknown"
}

// SlotByName 反查槽位
func SlotByName(name string) (Slot, bool) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), true
		}
	}
	return 0, false
}

// AccountGroup 一个市场的完整输入账户集合，构建成功后不再修改
type AccountGroup struct {
	Record   directory.MarketRecord
	Market   *market.State
	Product  *registry.ProductEntry
	Accounts [SlotCount]types.AccountSnapshot
}

func (g *AccountGroup) Get(s Slot) *types.AccountSnapshot {
	return &g.Accounts[s]
}

// FileName SOL/USD -> sol_usd
func FileName(displayName string) string {
	return strings.ToLower(strings.ReplaceAll(displayName, "/", "_"))
}

func (g *AccountGroup) FileName() string {
	return FileName(g.Record.Name)
}
