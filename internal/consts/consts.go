package consts

import "runtime"

// 默认配置
const (
	DefaultRpcURL      = "https://api.mainnet-beta.solana.com"
	DefaultMarketsJSON = "markets.json"
	DefaultMarketsURL  = "https://raw.githubusercontent.com/project-serum/serum-ts/master/packages/serum/src/markets.json"
	DefaultOutputDir   = "out"
)

// Solana RPC getMultipleAccounts 单次请求的地址上限
const MaxAccountsPerRequest = 100

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()
