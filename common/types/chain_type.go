package types

// ChainType represents supported blockchain types
type ChainType string

const (
	// SUI represents Sui based networks (mainnet, testnet, devnet, localnet).
	SUI ChainType = "SUI"
	// UNKNOWN represents unknown or unsupported chain type in the system.
	UNKNOWN ChainType = "UNKNOWN"
)

// String converts ChainType to string representation
func (t ChainType) String() string {
	return string(t)
}

// ParseChainType converts string to ChainType representation.
func ParseChainType(s string) ChainType {
	switch s {
	case SUI.String():
		return SUI
	default:
		return UNKNOWN
	}
}
