package serializer

import (
	"encoding/json"
	"fmt"

	"pyth-serum-client/internal/assembly"
	"pyth-serum-client/internal/directory"
	"pyth-serum-client/internal/market"
	"pyth-serum-client/internal/registry"
	"pyth-serum-client/internal/types"
)

type Account struct {
	Key        types.Pubkey `json:"key"`
	IsSigner   bool         `json:"is_signer"`
	IsWritable bool         `json:"is_writable"`
	Lamports   uint64       `json:"lamports"`
	Data       []byte       `json:"data"` // base64
	Owner      types.Pubkey `json:"owner"`
	Executable bool         `json:"executable"`
	RentEpoch  uint64       `json:"rent_epoch"`
}

// Document <name>.json 的内容，槽位字段顺序与二进制输出一致
type Document struct {
	Name   string                 `json:"name"`
	Record directory.MarketRecord `json:"record"`

	Payer        Account `json:"payer"`
	PythPrice    Account `json:"pyth_price"`
	SerumProgram Account `json:"serum_program"`
	SerumMarket  Account `json:"serum_market"`
	SerumBids    Account `json:"serum_bids"`
	SerumAsks    Account `json:"serum_asks"`
	QuoteToken   Account `json:"quote_token"`
	BaseToken    Account `json:"base_token"`
	SysvarClock  Account `json:"sysvar_clock"`
	PythProgram  Account `json:"pyth_program"`

	MarketState *market.State          `json:"serum_market_state,omitempty"`
	Product     *registry.ProductEntry `json:"pyth_product,omitempty"`
}

func (d *Document) slots() [assembly.SlotCount]*Account {
	return [assembly.SlotCount]*Account{
		assembly.SlotPayer:        &d.Payer,
		assembly.SlotPythPrice:    &d.PythPrice,
		assembly.SlotSerumProgram: &d.SerumProgram,
		assembly.SlotSerumMarket:  &d.SerumMarket,
		assembly.SlotSerumBids:    &d.SerumBids,
		assembly.SlotSerumAsks:    &d.SerumAsks,
		assembly.SlotQuoteToken:   &d.QuoteToken,
		assembly.SlotBaseToken:    &d.BaseToken,
		assembly.SlotSysvarClock:  &d.SysvarClock,
		assembly.SlotPythProgram:  &d.PythProgram,
	}
}

func NewDocument(g *assembly.AccountGroup) *Document {
	d := &Document{
		Name:        g.Record.Name,
		Record:      g.Record,
		MarketState: g.Market,
		Product:     g.Product,
	}
	for s, dst := range d.slots() {
		src := g.Accounts[s]
		*dst = Account{
			Key:        src.Key,
			IsSigner:   src.IsSigner,
			IsWritable: src.IsWritable,
			Lamports:   src.Lamports,
			Data:       src.Data,
			Owner:      src.Owner,
			Executable: src.Executable,
			RentEpoch:  src.RentEpoch,
		}
	}
	return d
}

// MarshalJSON 缩进格式，便于人工查看
func MarshalJSON(g *assembly.AccountGroup) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", g.Record.Name, err)
	}
	return append(data, '\n'), nil
}

// ParseJSON 从 <name>.json 还原 AccountGroup
func ParseJSON(data []byte) (*assembly.AccountGroup, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse account group: %w", err)
	}
	g := &assembly.AccountGroup{
		Record:  d.Record,
		Market:  d.MarketState,
		Product: d.Product,
	}
	for s, src := range d.slots() {
		g.Accounts[s] = types.AccountSnapshot{
			AccountRef: types.AccountRef{
				Key:        src.Key,
				IsSigner:   src.IsSigner,
				IsWritable: src.IsWritable,
			},
			Owner:      src.Owner,
			Lamports:   src.Lamports,
			Data:       src.Data,
			Executable: src.Executable,
			RentEpoch:  src.RentEpoch,
		}
	}
	return g, nil
}
