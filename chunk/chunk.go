package chunk

import (
	"iter"
	"slices"
)

const initialCap = 1024

// Chunkify 将序列切分为长度为 n 的批次，最后一批可能不足 n
// 源序列只被遍历一次，空序列不产生任何批次
func Chunkify[T any](seq iter.Seq[T], n int) iter.Seq[[]T] {
	if n < 1 {
		panic("chunk: size must be positive")
	}

	// n 只是上限，预分配容量不超过 initialCap
	size := min(n, initialCap)
	return func(yield func([]T) bool) {
		batch := make([]T, 0, size)
		for item := range seq {
			batch = append(batch, item)
			if len(batch) < n {
				continue
			}
			if !yield(batch) {
				return
			}
			batch = make([]T, 0, size)
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}

// Slice 对切片做同样的切分
func Slice[T any](items []T, n int) iter.Seq[[]T] {
	return Chunkify(slices.Values(items), n)
}
