package vec

// Vec2 представляет целочисленные 2D координаты (ячейки сетки)
type Vec2 struct {
	X, Y int
}

// Scale переводит ячейку сетки в мировые координаты при размере ячейки size
func (v Vec2) Scale(size int) Vec2 {
	return Vec2{X: v.X * size, Y: v.Y * size}
}
