package subsidy

//speclock:section 9.9
type Ledger struct {
	total uint64
}

//speclock:section 3.1
//speclock:section 3.2
//speclock:audit result
//speclock:section
func Duplicated(x uint64) uint64 {
	return x
}

//speclock:section 3.3
//speclock:ensures result >= 0
func Describe(name string) string {
	return name
}

//speclock:section 3.4
//speclock:ensures result >= 0
func (l *Ledger) Total() uint64 {
	return l.total
}
