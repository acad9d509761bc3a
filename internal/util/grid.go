package util

import "math"

// FloorDiv делит с округлением к минус бесконечности (b > 0)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) {
		q--
	}
	return q
}

// AlignDown выравнивает x вниз по сетке с шагом step
func AlignDown(x, step int) int {
	return FloorDiv(x, step) * step
}

// AlignDownFloat выравнивает вещественную координату вниз по сетке с шагом step
func AlignDownFloat(x float64, step int) float64 {
	s := float64(step)
	return math.Floor(x/s) * s
}

// GridSpan возвращает первый столбец сетки и число столбцов в [minX, maxX].
// Счёт ведётся в uint64, поэтому диапазоны у границ int не переполняются.
// Столбец, начало которого меньше math.MinInt, пропускается.
func GridSpan(minX, maxX, step int) (start int, count uint64) {
	if maxX < minX || step <= 0 {
		return 0, 0
	}

	start = AlignDown(minX, step)
	if start > minX {
		start += step
	}
	end := AlignDown(maxX, step)
	if end > maxX || start > end {
		return 0, 0
	}
	return start, (uint64(end)-uint64(start))/uint64(step) + 1
}

// GridColumn возвращает x столбца i, начиная со start
func GridColumn(start int, i uint64, step int) int {
	return start + int(i)*step
}
