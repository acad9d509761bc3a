package util

// hashMultiplier — нечётная 32-битная константа перемешивания
const hashMultiplier uint32 = 0x45d9f3b

// hashScale нормирует 31-битное значение в [0, 1)
const hashScale = float64(1 << 31)

// HashAt возвращает детерминированный 31-битный хеш координаты x для сида seed.
// Вся арифметика ведётся в uint32 с переполнением по модулю 2^32:
// от этого зависит форма ландшафта и расстановка деревьев.
func HashAt(x int, seed int32) uint32 {
	z := uint32(x) ^ uint32(seed)
	z = (z ^ (z >> 16)) * hashMultiplier
	z = (z ^ (z >> 16)) * hashMultiplier
	z ^= z >> 16
	return z & 0x7FFFFFFF
}

// PseudoRandomAt возвращает псевдослучайное число в диапазоне [0, 1)
// для координаты x. Одинаковые (x, seed) всегда дают одинаковый результат.
func PseudoRandomAt(x int, seed int32) float64 {
	return float64(HashAt(x, seed)) / hashScale
}
