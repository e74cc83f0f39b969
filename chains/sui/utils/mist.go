package utils

// MistPerSui is the number of MIST in one SUI.
const MistPerSui = 1e9

// MistToSui converts MIST (uint64) to SUI (float64)
func MistToSui(mist uint64) float64 {
	return float64(mist) / MistPerSui
}
