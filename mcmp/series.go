package mcmp

const (
	seriesEls int = iota
	seriesNumValueEls
)

type seriesKey struct {
	userKey interface{}
	mod     int
}

// SeriesElement is a single element in a series kept by AddSeriesValue. It is
// either a Child spawned from the Component or a Value added to the series.
type SeriesElement struct {
	Child *Component
	Value interface{}
}

func seriesKeys(key interface{}) (seriesKey, seriesKey) {
	return seriesKey{userKey: key, mod: seriesEls},
		seriesKey{userKey: key, mod: seriesNumValueEls}
}

func getSeriesElements(c *Component, key interface{}) ([]SeriesElement, int) {
	elsKey, numValueElsKey := seriesKeys(key)
	lastEls, _ := c.Value(elsKey).([]SeriesElement)
	lastNumValueEls, _ := c.Value(numValueElsKey).(int)

	children := c.Children()
	lastNumChildrenEls := len(lastEls) - lastNumValueEls

	els := make([]SeriesElement, len(lastEls), len(lastEls)+len(children)-lastNumChildrenEls+1)
	copy(els, lastEls)
	for _, child := range children[lastNumChildrenEls:] {
		els = append(els, SeriesElement{Child: child})
	}
	return els, lastNumValueEls
}

// AddSeriesValue adds a value to the series stored under the given key on the
// Component.
//
// The order of AddSeriesValue calls relative to Child calls is kept, so
// SeriesElements can return values and children interleaved in the order they
// happened. mrun uses this so that hooks of a child run at the point the child
// was created.
func AddSeriesValue(c *Component, key, value interface{}) {
	lastEls, lastNumValueEls := getSeriesElements(c, key)
	els := append(lastEls, SeriesElement{Value: value})

	elsKey, numValueElsKey := seriesKeys(key)
	c.SetValue(elsKey, els)
	c.SetValue(numValueElsKey, lastNumValueEls+1)
}

// SeriesElements returns the values added under the given key via
// AddSeriesValue, interlaced with the Component's children, in the order the
// events originally happened.
func SeriesElements(c *Component, key interface{}) []SeriesElement {
	els, _ := getSeriesElements(c, key)
	return els
}

// SeriesValues returns only the values added under the given key via
// AddSeriesValue, in the order they were added.
func SeriesValues(c *Component, key interface{}) []interface{} {
	elsKey, numValueElsKey := seriesKeys(key)
	els, _ := c.Value(elsKey).([]SeriesElement)
	numValueEls, _ := c.Value(numValueElsKey).(int)

	values := make([]interface{}, 0, numValueEls)
	for _, el := range els {
		if el.Child != nil {
			continue
		}
		values = append(values, el.Value)
	}
	return values
}
