package consts

import "pyth-serum-client/internal/types"

const (
	// https://pyth.network/developers/accounts
	PythProgramStr = "FsJ3A3u2vn5cTVofAjvy6y5kwABJAqYWpe4975bi2epH"
	PythMappingStr = "AHtgzX45WTKfkPG53L6WYhGEXwQkN1BVknET3sVsLL8J"
)

var (
	PythProgram = types.PubkeyFromBase58(PythProgramStr)
	PythMapping = types.PubkeyFromBase58(PythMappingStr)
)
