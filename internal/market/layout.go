package market

import (
	"encoding/binary"
	"fmt"

	"pyth-serum-client/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// Serum dex v2/v3 MarketState，参考 serum-dex/dex/src/state.rs
const (
	StateSize = 388

	headPadding = "serum"
	tailPadding = "padding"
)

// AccountFlag serum-dex state.rs AccountFlag
const (
	FlagInitialized  uint64 = 1 << 0
	FlagMarket       uint64 = 1 << 1
	FlagOpenOrders   uint64 = 1 << 2
	FlagRequestQueue uint64 = 1 << 3
	FlagEventQueue   uint64 = 1 << 4
	FlagBids         uint64 = 1 << 5
	FlagAsks         uint64 = 1 << 6
	FlagDisabled     uint64 = 1 << 7
)

type stateLayout struct {
	HeadPadding            [5]byte
	AccountFlags           uint64
	OwnAddress             types.Pubkey
	VaultSignerNonce       uint64
	BaseMint               types.Pubkey
	QuoteMint              types.Pubkey
	BaseVault              types.Pubkey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             types.Pubkey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           types.Pubkey
	EventQueue             types.Pubkey
	Bids                   types.Pubkey
	Asks                   types.Pubkey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	TailPadding            [7]byte
}

// State 解码后的市场账户
type State struct {
	AccountFlags     uint64       `json:"account_flags"`
	OwnAddress       types.Pubkey `json:"own_address"`
	VaultSignerNonce uint64       `json:"vault_signer_nonce"`
	VaultSigner      types.Pubkey `json:"vault_signer"`
	BaseMint         types.Pubkey `json:"base_mint"`
	QuoteMint        types.Pubkey `json:"quote_mint"`
	BaseVault        types.Pubkey `json:"base_vault"`
	QuoteVault       types.Pubkey `json:"quote_vault"`
	RequestQueue     types.Pubkey `json:"request_queue"`
	EventQueue       types.Pubkey `json:"event_queue"`
	Bids             types.Pubkey `json:"bids"`
	Asks             types.Pubkey `json:"asks"`
	BaseLotSize      uint64       `json:"base_lot_size"`
	QuoteLotSize     uint64       `json:"quote_lot_size"`
	FeeRateBps       uint64       `json:"fee_rate_bps"`
}

// Decode 校验并解析 Serum 市场账户数据；programID 用于推导 vault signer。
// 纯函数，不做 I/O。
func Decode(data []byte, programID types.Pubkey) (*State, error) {
	if len(data) < StateSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", types.ErrDecodeTruncated, len(data), StateSize)
	}

	var raw stateLayout
	if err := borsh.Deserialize(&raw, data[:StateSize]); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeTruncated, err)
	}
	if string(raw.HeadPadding[:]) != headPadding || string(raw.TailPadding[:]) != tailPadding {
		return nil, fmt.Errorf("%w: padding %q/%q", types.ErrDecodeVersionMismatch, raw.HeadPadding[:], raw.TailPadding[:])
	}
	const want = FlagInitialized | FlagMarket
	if raw.AccountFlags&want != want || raw.AccountFlags&FlagDisabled != 0 {
		return nil, fmt.Errorf("%w: account flags 0x%x", types.ErrDecodeVersionMismatch, raw.AccountFlags)
	}

	signer, err := VaultSigner(raw.OwnAddress, raw.VaultSignerNonce, programID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeVersionMismatch, err)
	}

	return &State{
		AccountFlags:     raw.AccountFlags,
		OwnAddress:       raw.OwnAddress,
		VaultSignerNonce: raw.VaultSignerNonce,
		VaultSigner:      signer,
		BaseMint:         raw.BaseMint,
		QuoteMint:        raw.QuoteMint,
		BaseVault:        raw.BaseVault,
		QuoteVault:       raw.QuoteVault,
		RequestQueue:     raw.RequestQueue,
		EventQueue:       raw.EventQueue,
		Bids:             raw.Bids,
		Asks:             raw.Asks,
		BaseLotSize:      raw.BaseLotSize,
		QuoteLotSize:     raw.QuoteLotSize,
		FeeRateBps:       raw.FeeRateBps,
	}, nil
}

// VaultSigner create_program_address([market, nonce_le], dex_program)
func VaultSigner(market types.Pubkey, nonce uint64, programID types.Pubkey) (types.Pubkey, error) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	pk, err := common.CreateProgramAddress([][]byte{market[:], n[:]}, common.PublicKey(programID))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("vault signer nonce %d: %w", nonce, err)
	}
	return types.Pubkey(pk), nil
}

// FindVaultSignerNonce 找到第一个可用的 nonce，用于构造测试数据
func FindVaultSignerNonce(market, programID types.Pubkey) (uint64, types.Pubkey, error) {
	for nonce := uint64(0); nonce < 256; nonce++ {
		if pk, err := VaultSigner(market, nonce, programID); err == nil {
			return nonce, pk, nil
		}
	}
	return 0, types.Pubkey{}, fmt.Errorf("no vault signer nonce for market %s", market)
}

// Encode 把 State 写回 388 字节账户格式
func Encode(s *State) ([]byte, error) {
	raw := stateLayout{
		AccountFlags:     s.AccountFlags,
		OwnAddress:       s.OwnAddress,
		VaultSignerNonce: s.VaultSignerNonce,
		BaseMint:         s.BaseMint,
		QuoteMint:        s.QuoteMint,
		BaseVault:        s.BaseVault,
		QuoteVault:       s.QuoteVault,
		RequestQueue:     s.RequestQueue,
		EventQueue:       s.EventQueue,
		Bids:             s.Bids,
		Asks:             s.Asks,
		BaseLotSize:      s.BaseLotSize,
		QuoteLotSize:     s.QuoteLotSize,
		FeeRateBps:       s.FeeRateBps,
	}
	copy(raw.HeadPadding[:], headPadding)
	copy(raw.TailPadding[:], tailPadding)

	data, err := borsh.Serialize(raw)
	if err != nil {
		return nil, err
	}
	if len(data) != StateSize {
		return nil, fmt.Errorf("encoded %d bytes, want %d", len(data), StateSize)
	}
	return data, nil
}
