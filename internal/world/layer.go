package world

// Layer определяет слой отображения, в который хост помещает объект.
// Значения совпадают со слоями движка, которому принадлежит живой мир:
// чем меньше значение, тем дальше слой от зрителя.
//
// LayerBackground – небо, листва;
// LayerStaticObjects – земля, стволы, плоды;
// LayerDefault – подвижные объекты;
// LayerForeground, LayerUI – всё, что рисуется поверх мира.
type Layer int

const (
	LayerBackground    Layer = -200
	LayerStaticObjects Layer = -100
	LayerDefault       Layer = 0
	LayerForeground    Layer = 100
	LayerUI            Layer = 200
)

// String возвращает строковое представление слоя
func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerStaticObjects:
		return "static"
	case LayerDefault:
		return "default"
	case LayerForeground:
		return "foreground"
	case LayerUI:
		return "ui"
	default:
		return "unknown"
	}
}
