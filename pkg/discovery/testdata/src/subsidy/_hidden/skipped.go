package skipme

//speclock:section 8.8
//speclock:ensures result >= 0
func Hidden(x uint64) uint64 {
	return x
}
