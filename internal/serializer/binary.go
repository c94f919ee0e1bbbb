package serializer

import (
	"encoding/binary"

	"pyth-serum-client/internal/assembly"
	"pyth-serum-client/internal/types"
)

// BPF loader 输入序列化格式（solana_sdk.h sol_deserialize 的逆过程）：
//
//	u64 账户数
//	每个账户: u8 dup(0xff) u8 signer u8 writable u8 executable [4]pad
//	          key owner u64 lamports u64 len data [10240]0 pad8 u64 rent_epoch
//	u64 指令数据长度, 指令数据, program_id
const (
	MaxPermittedDataIncrease = 10 * 1024
	nonDupMarker             = 0xff
)

// InputLen 序列化后的字节数
func InputLen(g *assembly.AccountGroup, instruction []byte) int {
	n := 8
	for i := range g.Accounts {
		n = accountEnd(n, len(g.Accounts[i].Data))
	}
	return n + 8 + len(instruction) + 32
}

func accountEnd(off, dataLen int) int {
	off += 1 + 1 + 1 + 1 + 4 + 32 + 32 + 8 + 8 + dataLen + MaxPermittedDataIncrease
	off = align8(off)
	return off + 8
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// MarshalBinary 按固定槽位顺序输出 serum-pyth 程序的输入
func MarshalBinary(g *assembly.AccountGroup, programID types.Pubkey, instruction []byte) []byte {
	buf := make([]byte, 0, InputLen(g, instruction))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(g.Accounts)))

	for i := range g.Accounts {
		acc := &g.Accounts[i]
		buf = append(buf, nonDupMarker, boolByte(acc.IsSigner), boolByte(acc.IsWritable), boolByte(acc.Executable))
		buf = append(buf, 0, 0, 0, 0)
		buf = append(buf, acc.Key[:]...)
		buf = append(buf, acc.Owner[:]...)
		buf = binary.LittleEndian.AppendUint64(buf, acc.Lamports)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(acc.Data)))
		buf = append(buf, acc.Data...)
		buf = append(buf, make([]byte, MaxPermittedDataIncrease)...)
		buf = append(buf, make([]byte, align8(len(buf))-len(buf))...)
		buf = binary.LittleEndian.AppendUint64(buf, acc.RentEpoch)
	}

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(instruction)))
	buf = append(buf, instruction...)
	buf = append(buf, programID[:]...)
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
