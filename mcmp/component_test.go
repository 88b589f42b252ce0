package mcmp

import (
	. "testing"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent(t *T) {
	c := new(Component)
	name, ok := c.Name()
	assert.Equal(t, "", name)
	assert.False(t, ok)
	assert.Empty(t, c.Path())
	assert.Empty(t, c.Children())
	assert.Nil(t, c.Value("foo"))
	assert.False(t, c.HasValue("foo"))

	c.SetValue("foo", 1)
	child := c.Child("camera")
	name, ok = child.Name()
	assert.Equal(t, "camera", name)
	assert.True(t, ok)
	assert.Equal(t, []string{"camera"}, child.Path())
	assert.Equal(t, []*Component{child}, c.Children())
	assert.Equal(t, 1, c.Value("foo"))
	assert.Nil(t, child.Value("foo"))

	child.SetValue("bar", 2)
	assert.Nil(t, c.Value("bar"))
	assert.Equal(t, 2, child.Value("bar"))

	v, ok := child.InheritedValue("foo")
	assert.Equal(t, 1, v)
	assert.True(t, ok)
	_, ok = c.InheritedValue("bar")
	assert.False(t, ok)

	assert.Panics(t, func() { c.Child("camera") })
}

func TestComponentPathsDontAlias(t *T) {
	root := new(Component)
	a := root.Child("a")
	a1 := a.Child("1")
	a2 := a.Child("2")
	assert.Equal(t, []string{"a", "1"}, a1.Path())
	assert.Equal(t, []string{"a", "2"}, a2.Path())
}

func TestComponentAnnotate(t *T) {
	c := new(Component).Child("http").Child("listener")
	c.Annotate("addr", ":8080")
	aa := mctx.EvaluateAnnotations(c.Context(), nil).StringMap()
	assert.Equal(t, map[string]string{
		"componentPath": "/http/listener",
		"addr":          ":8080",
	}, aa)
}

func TestBreadthFirstVisit(t *T) {
	cmp := new(Component)
	cmp1 := cmp.Child("1")
	cmp1a := cmp1.Child("a")
	cmp1b := cmp1.Child("b")
	cmp2 := cmp.Child("2")

	var got []*Component
	BreadthFirstVisit(cmp, func(c *Component) bool {
		got = append(got, c)
		return true
	})
	require.Equal(t, []*Component{cmp, cmp1, cmp2, cmp1a, cmp1b}, got)

	got = got[:0]
	BreadthFirstVisit(cmp, func(c *Component) bool {
		got = append(got, c)
		return len(got) < 2
	})
	assert.Equal(t, []*Component{cmp, cmp1}, got)
}

func TestSeries(t *T) {
	key := "hooks"
	c := new(Component)
	AddSeriesValue(c, key, 1)
	child := c.Child("child")
	AddSeriesValue(c, key, 2)

	assert.Equal(t, []SeriesElement{
		{Value: 1},
		{Child: child},
		{Value: 2},
	}, SeriesElements(c, key))
	assert.Equal(t, []interface{}{1, 2}, SeriesValues(c, key))
	assert.Empty(t, SeriesValues(child, key))
}
