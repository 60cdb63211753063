package domain

// ChainID is an EVM chain id.
type ChainID uint64

const (
	ChainIDBase        ChainID = 8453
	ChainIDBaseSepolia ChainID = 84532
)

// ChainIDToName maps known chain ids to a display name.
var ChainIDToName = map[ChainID]string{
	ChainIDBase:        "base",
	ChainIDBaseSepolia: "base-sepolia",
}
