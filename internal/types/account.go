package types

// AccountRef 描述账户在程序调用中的角色，与账户内容无关
type AccountRef struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool
}

// AccountSnapshot 某一时刻拉取到的账户状态
type AccountSnapshot struct {
	AccountRef
	Owner      Pubkey
	Lamports   uint64
	Data       []byte
	Executable bool
	RentEpoch  uint64
}
