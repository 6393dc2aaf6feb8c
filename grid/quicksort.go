package grid

// threeWayQuicksort sorts rows ascending on rows[i][axis] using a
// Dutch-flag three-way partition, recursing into the smaller partition
// and looping on the larger one so stack depth stays O(log n).
func threeWayQuicksort(rows [][]int64, axis int) {
	quicksortRange(rows, 0, len(rows)-1, axis)
}

func quicksortRange(rows [][]int64, lo, hi, axis int) {
	for lo < hi {
		lt, gt := lo, hi
		pivot := rows[lo][axis]
		i := lo + 1
		for i <= gt {
			switch {
			case rows[i][axis] < pivot:
				rows[lt], rows[i] = rows[i], rows[lt]
				lt++
				i++
			case rows[i][axis] > pivot:
				rows[i], rows[gt] = rows[gt], rows[i]
				gt--
			default:
				i++
			}
		}
		if lt-lo < hi-gt {
			quicksortRange(rows, lo, lt-1, axis)
			lo = gt + 1
		} else {
			quicksortRange(rows, gt+1, hi, axis)
			hi = lt - 1
		}
	}
}
