package changepart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const javaMethod = `class A {
  void m() {
    int a = 1;
    a++;
    if (a > 0) {
      a--;
    }
    a += 2;
    a *= 3;
  }
}
`

func boundaryLines(b []bool) []int {
	var out []int
	for i, v := range b {
		if v {
			out = append(out, i+1)
		}
	}
	return out
}

func TestScanBoundaries_NestedBlock(t *testing.T) {
	b := ScanBoundaries([]byte(javaMethod), 1)
	assert.Len(t, b, 11)
	assert.Equal(t, []int{1, 10, 11}, boundaryLines(b))
}

func TestScanBoundaries_DeeperLimit(t *testing.T) {
	b := ScanBoundaries([]byte(javaMethod), 2)
	assert.Equal(t, []int{1, 2, 3, 4, 7, 8, 9, 10, 11}, boundaryLines(b))
}

func TestScanBoundaries_SkipsLiteralsAndComments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []int
	}{
		{"string with braces", "x = \"{;}\"\n", nil},
		{"char literal", "c = '}'\n", nil},
		{"escaped quote", "s = \"a\\\"{\"\n", nil},
		{"line comment", "// { ;\nx;\n", []int{2}},
		{"block comment across lines", "/* {\n ; }\n*/ y;\n", []int{3}},
		{"raw string across lines", "s := `{\n;`\nz;\n", []int{3}},
		{"statement", "a;\nb\n", []int{1}},
		{"unbalanced close", "}\n}\n", []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, boundaryLines(ScanBoundaries([]byte(tt.content), 1)))
		})
	}
}

func TestScanBoundaries_DefaultDepth(t *testing.T) {
	assert.Equal(t, ScanBoundaries([]byte(javaMethod), 1), ScanBoundaries([]byte(javaMethod), 0))
}

func TestBoundaryBetween(t *testing.T) {
	b := ScanBoundaries([]byte(javaMethod), 1)
	assert.False(t, boundaryBetween(b, 3, 9))
	assert.True(t, boundaryBetween(b, 3, 10))
	assert.True(t, boundaryBetween(b, 0, 1))
	assert.False(t, boundaryBetween(b, 5, 4))
	assert.False(t, boundaryBetween(b, 12, 40))
}
