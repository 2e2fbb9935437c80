package subsidy

//speclock:section 6.1
//speclock:requires height >= 0
//speclock:ensures result <= INITIAL_SUBSIDY
//speclock:ensures result >= 0
func GetBlockSubsidy(height uint64) uint64 {
	era := height / 210_000
	//
	return 5_000_000_000 >> era
}

//speclock:section 6.2
//speclock:ensures result >= min(a, b)
func Clamp(a int64, b int64) int64 {
	if a < b {
		return b
	}
	//
	return a
}

// Plain functions are not spec-locked.
func Untracked(x uint64) uint64 {
	return x + 1
}

//speclock:requires supply >= 0
func MissingSection(supply int64) int64 {
	return supply
}
