package types

import (
	"errors"
	"fmt"
)

// 目录阶段：整次运行失败
var (
	ErrDirectoryUnavailable = errors.New("market directory unavailable")
	ErrDirectoryMalformed   = errors.New("market directory malformed")
)

// 以下阶段：仅影响单个市场
var (
	ErrSymbolNotFound        = errors.New("symbol not found in price registry")
	ErrRegistryCorrupt       = errors.New("price registry corrupt")
	ErrDecodeVersionMismatch = errors.New("market account version mismatch")
	ErrDecodeTruncated       = errors.New("market account truncated")
	ErrUnexpectedOwner       = errors.New("unexpected account owner")
	ErrAccountMissing        = errors.New("account missing")
	ErrTransportFailure      = errors.New("transport failure")
)

// SlotError 标记出错的账户槽位
type SlotError struct {
	Slot string
	Key  Pubkey
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %s (%s): %v", e.Slot, e.Key, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}
