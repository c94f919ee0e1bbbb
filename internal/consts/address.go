package consts

import "pyth-serum-client/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr               = "11111111111111111111111111111111"
	TokenProgramStr                = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	SysvarProgramStr               = "Sysvar1111111111111111111111111111111111111"
	BPFLoaderProgramStr            = "BPFLoader1111111111111111111111111111111111"
	BPFLoader2ProgramStr           = "BPFLoader2111111111111111111111111111111111"
	BPFLoaderUpgradeableProgramStr = "BPFLoaderUpgradeab1e11111111111111111111111"

	// Sysvars
	SysvarClockStr = "SysvarC1ock11111111111111111111111111111111"

	// DEX: Serum v3
	SerumDexV3ProgramStr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
)

var (
	SystemProgram               = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram                = types.PubkeyFromBase58(TokenProgramStr)
	SysvarProgram               = types.PubkeyFromBase58(SysvarProgramStr)
	BPFLoaderProgram            = types.PubkeyFromBase58(BPFLoaderProgramStr)
	BPFLoader2Program           = types.PubkeyFromBase58(BPFLoader2ProgramStr)
	BPFLoaderUpgradeableProgram = types.PubkeyFromBase58(BPFLoaderUpgradeableProgramStr)

	SysvarClock = types.PubkeyFromBase58(SysvarClockStr)

	SerumDexV3Program = types.PubkeyFromBase58(SerumDexV3ProgramStr)

	// 可执行程序账户允许的 owner
	BPFLoaders = []types.Pubkey{
		BPFLoaderProgram,
		BPFLoader2Program,
		BPFLoaderUpgradeableProgram,
	}
)
