package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryPubkeyFromBase58(t *testing.T) {
	p, err := TryPubkeyFromBase58("SysvarC1ock11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "SysvarC1ock11111111111111111111111111111111", p.String())

	_, err = TryPubkeyFromBase58("0OIl")
	assert.Error(t, err)

	_, err = TryPubkeyFromBase58("abc")
	assert.Error(t, err)
}

func TestPubkey_JSON(t *testing.T) {
	p := PubkeyFromBase58("11111111111111111111111111111111")
	assert.True(t, p.IsZero())

	in := struct {
		Key Pubkey `json:"key"`
	}{Key: PubkeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"}`, string(data))

	var out struct {
		Key Pubkey `json:"key"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Key, out.Key)

	assert.Error(t, json.Unmarshal([]byte(`{"key":"nope"}`), &out))
}

func TestSlotError_Unwrap(t *testing.T) {
	err := fmt.Errorf("build: %w", &SlotError{Slot: "pyth_price", Err: ErrUnexpectedOwner})
	assert.True(t, errors.Is(err, ErrUnexpectedOwner))

	var se *SlotError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "pyth_price", se.Slot)
}
