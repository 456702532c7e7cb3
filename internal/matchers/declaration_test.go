package matchers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobiasbaum/reviewtool-sub002/internal/changepart"
	"github.com/tobiasbaum/reviewtool-sub002/internal/position"
)

const shopJava = `class Shop {
  int total(int a) {
    return a * 2;
  }
  void checkout() {
    int t = total(3);
  }
}
`

const priceGo = `package shop

func Price(n int) int {
	return n * 3
}
`

func source(files map[string]string) changepart.ContentSource {
	return changepart.ContentFunc(func(_ context.Context, p string) ([]byte, error) {
		c, ok := files[p]
		if !ok {
			return nil, errors.New("missing")
		}
		return []byte(c), nil
	})
}

func TestDeclaration_LinksUses(t *testing.T) {
	decl := part("Shop.java", 3, "    return a * 2;")
	use := part("Shop.java", 6, "    int t = total(3);")
	other := part("README.md", 1, "total is documented here")

	m := NewDeclaration(source(map[string]string{"Shop.java": shopJava}), nil)
	got, err := m.Match(context.Background(), []Part{decl, use, other})
	require.NoError(t, err)
	require.Len(t, got, 1)

	mt := got[0]
	assert.Equal(t, "total and its uses", mt.Description)
	assert.Equal(t, []Part{decl}, mt.Set.Centers)
	assert.Equal(t, 3, mt.Set.Items.Len())
	require.Len(t, mt.Positions, 1)
	assert.Equal(t, decl, mt.Positions[0].Item)
	assert.Equal(t, position.First, mt.Positions[0].Anchor)
}

func TestDeclaration_GoAcrossFiles(t *testing.T) {
	decl := part("shop/price.go", 4, "\treturn n * 3")
	use := part("main.go", 10, "\tfmt.Println(shop.Price(2))")
	unrelated := part("main.go", 20, "\tPricey()")

	m := NewDeclaration(source(map[string]string{"shop/price.go": priceGo}), nil)
	got, err := m.Match(context.Background(), []Part{decl, use, unrelated})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Price and its uses", got[0].Description)
	assert.True(t, got[0].Set.Items.Has(use))
	assert.False(t, got[0].Set.Items.Has(unrelated))
}

func TestDeclaration_UnreadableFileIsSkipped(t *testing.T) {
	m := NewDeclaration(source(nil), nil)
	got, err := m.Match(context.Background(), []Part{part("a.go", 1, "x"), part("b.py", 1, "y")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeclaration_NoSource(t *testing.T) {
	got, err := NewDeclaration(nil, nil).Match(context.Background(), []Part{part("a.go", 1)})
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestChangedDeclarations_Innermost(t *testing.T) {
	decls := []declaration{{"Outer", 1, 20}, {"inner", 5, 8}, {"other", 10, 12}}
	p := changepart.New(
		changepart.Fragment{Path: "a", StartLine: 6, EndLine: 6},
		changepart.Fragment{Path: "a", StartLine: 7, EndLine: 7},
		changepart.Fragment{Path: "a", StartLine: 15, EndLine: 14},
	)
	got := changedDeclarations(p, decls)
	require.Len(t, got, 2)
	assert.Equal(t, "inner", got[0].name)
	assert.Equal(t, "Outer", got[1].name)
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions([]string{"x := total(1)"}, "total"))
	assert.False(t, mentions([]string{"x := subtotal(1)"}, "total"))
	assert.False(t, mentions([]string{"totals"}, "total"))
	assert.True(t, mentions([]string{"a", "obj.total"}, "total"))
}
