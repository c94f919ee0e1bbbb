package serializer

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"pyth-serum-client/internal/assembly"
	"pyth-serum-client/internal/assembly/assemblytest"
	"pyth-serum-client/internal/consts"
	"pyth-serum-client/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGroup(t *testing.T) *assembly.AccountGroup {
	t.Helper()
	w := assemblytest.NewWorld(t, "SOL/USD")
	g, err := assembly.NewBuilder(w.Fetcher, assembly.Options{
		Mapping:     assemblytest.Mapping,
		PythProgram: consts.PythProgram,
		Payer:       assemblytest.Payer,
	}).Build(context.Background(), w.Markets[0].Record)
	require.NoError(t, err)
	return g
}

func TestJSON_RoundTrip(t *testing.T) {
	g := buildGroup(t)

	data, err := MarshalJSON(g)
	require.NoError(t, err)

	back, err := ParseJSON(data)
	require.NoError(t, err)
	for s := assembly.Slot(0); s < assembly.SlotCount; s++ {
		want, got := g.Get(s), back.Get(s)
		assert.Equal(t, want.AccountRef, got.AccountRef, "slot %s", s)
		assert.Equal(t, want.Owner, got.Owner, "slot %s", s)
		assert.Equal(t, want.Lamports, got.Lamports, "slot %s", s)
		assert.Equal(t, want.Data, got.Data, "slot %s", s)
	}
	assert.Equal(t, g.Record, back.Record)
	assert.Equal(t, g.Market, back.Market)
	assert.Equal(t, g.Product, back.Product)
}

func TestJSON_Layout(t *testing.T) {
	g := buildGroup(t)
	data, err := MarshalJSON(g)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for s := assembly.Slot(0); s < assembly.SlotCount; s++ {
		assert.Contains(t, doc, s.String())
	}

	var payer map[string]any
	require.NoError(t, json.Unmarshal(doc["payer"], &payer))
	assert.Equal(t, assemblytest.Payer.String(), payer["key"])
	assert.Equal(t, true, payer["is_signer"])
	assert.Equal(t, true, payer["is_writable"])
	assert.Equal(t, consts.SystemProgramStr, payer["owner"])

	var clock map[string]any
	require.NoError(t, json.Unmarshal(doc["sysvar_clock"], &clock))
	assert.Equal(t, consts.SysvarClockStr, clock["key"])
	assert.Equal(t, false, clock["is_signer"])
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"payer":{"key":"not base58!"}}`))
	assert.Error(t, err)
}

func TestMarshalBinary(t *testing.T) {
	g := buildGroup(t)
	programID := assemblytest.Key(0xAB, 1)
	out := MarshalBinary(g, programID, nil)
	require.Len(t, out, InputLen(g, nil))

	assert.Equal(t, uint64(assembly.SlotCount), binary.LittleEndian.Uint64(out[:8]))

	off := 8
	for s := assembly.Slot(0); s < assembly.SlotCount; s++ {
		acc := g.Get(s)
		assert.Equal(t, byte(0xff), out[off], "dup marker %s", s)
		assert.Equal(t, boolByte(acc.IsSigner), out[off+1], "signer %s", s)
		assert.Equal(t, boolByte(acc.IsWritable), out[off+2], "writable %s", s)
		assert.Equal(t, boolByte(acc.Executable), out[off+3], "executable %s", s)
		off += 8

		assert.Equal(t, acc.Key, types.PubkeyFromBytes(out[off:off+32]), "key %s", s)
		off += 32
		assert.Equal(t, acc.Owner, types.PubkeyFromBytes(out[off:off+32]), "owner %s", s)
		off += 32
		assert.Equal(t, acc.Lamports, binary.LittleEndian.Uint64(out[off:]), "lamports %s", s)
		off += 8
		n := int(binary.LittleEndian.Uint64(out[off:]))
		off += 8
		require.Equal(t, len(acc.Data), n, "data len %s", s)
		assert.True(t, bytes.Equal(acc.Data, out[off:off+n]), "data %s", s)
		off += n + MaxPermittedDataIncrease
		off = (off + 7) &^ 7
		assert.Equal(t, acc.RentEpoch, binary.LittleEndian.Uint64(out[off:]), "rent epoch %s", s)
		off += 8
	}

	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(out[off:]))
	off += 8
	assert.Equal(t, programID, types.PubkeyFromBytes(out[off:off+32]))
	assert.Equal(t, len(out), off+32)
}

func TestMarshalBinary_Alignment(t *testing.T) {
	g := &assembly.AccountGroup{}
	g.Accounts[0].Data = []byte{1, 2, 3}
	out := MarshalBinary(g, types.Pubkey{}, []byte{9})

	// 8 + 头部 88 + 3 字节数据 + 10240，对齐到 8 后是 rent_epoch
	first := 8 + 88 + 3 + MaxPermittedDataIncrease
	assert.Equal(t, 10344, align8(first))
	assert.Equal(t, InputLen(g, []byte{9}), len(out))
	assert.Equal(t, byte(9), out[len(out)-33])
}
