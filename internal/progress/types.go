package progress

// MarketStatus 单个市场最近一次运行的结果（Redis 中以整数存储）
type MarketStatus int

const (
	StatusUnknown MarketStatus = 0 // Redis 不存在
	StatusBuilt   MarketStatus = 1 // 已输出账户组
	StatusFailed  MarketStatus = 2 // 构建失败，跳过
)

func (s MarketStatus) String() string {
	switch s {
	case StatusBuilt:
		return "built"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarketRecord 一条状态记录
type MarketRecord struct {
	Address string
	Name    string
	RunID   string
	Status  MarketStatus
	Error   string
}
