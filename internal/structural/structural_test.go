package structural

import (
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/goccy/go-yaml"
)

type equalityCase struct {
	Name  string      `yaml:"name"`
	A     interface{} `yaml:"a"`
	B     interface{} `yaml:"b"`
	Equal bool        `yaml:"equal"`
}

func loadEqualityCases(t *testing.T) []*equalityCase {
	t.Helper()

	b, err := os.ReadFile("./_testdata/equality_cases.yaml")
	if err != nil {
		t.Fatal(err)
	}

	var cases []*equalityCase
	err = yaml.Unmarshal(b, &cases)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatal("equality case list is empty")
	}

	return cases
}

func TestEquals(t *testing.T) {
	for _, tc := range loadEqualityCases(t) {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			if got := Equals(tc.A, tc.B); got != tc.Equal {
				t.Errorf("Equals(%#v, %#v) = %t, want %t", tc.A, tc.B, got, tc.Equal)
			}
			// symmetry
			if got := Equals(tc.B, tc.A); got != tc.Equal {
				t.Errorf("Equals(%#v, %#v) = %t, want %t", tc.B, tc.A, got, tc.Equal)
			}
			// reflexivity
			if !Equals(tc.A, tc.A) {
				t.Errorf("Equals(%#v, itself) = false", tc.A)
			}
			if !Equals(tc.B, tc.B) {
				t.Errorf("Equals(%#v, itself) = false", tc.B)
			}
		})
	}
}

func TestHashCoherence(t *testing.T) {
	cases := loadEqualityCases(t)

	values := make([]interface{}, 0, len(cases)*2)
	for _, tc := range cases {
		values = append(values, tc.A, tc.B)
	}

	for i, a := range values {
		for j, b := range values {
			if Equals(a, b) && Hash(a) != Hash(b) {
				t.Errorf("values %d and %d are equal but hash differently: %#v vs %#v", i, j, a, b)
			}
		}
	}
}

func TestHashMapOrderIndependence(t *testing.T) {
	// build the "same" map twice with different insertion order. Go does not
	// guarantee iteration order either way, so the sorted-key fold is what
	// this actually exercises.
	a := map[string]interface{}{}
	b := map[string]interface{}{}
	for i := 0; i < 100; i++ {
		a[fmt.Sprintf("key%d", i)] = i
	}
	for i := 99; i >= 0; i-- {
		b[fmt.Sprintf("key%d", i)] = i
	}

	if !Equals(a, b) {
		t.Fatal("maps should be equal")
	}
	if Hash(a) != Hash(b) {
		t.Fatal("equal maps must hash equal")
	}
}

func TestHashKindSeparation(t *testing.T) {
	// empty containers and zero scalars must not all collapse to one hash.
	values := []interface{}{
		nil,
		false,
		0,
		"",
		[]interface{}{},
		map[string]interface{}{},
	}
	seen := make(map[uint64]interface{})
	for _, v := range values {
		h := Hash(v)
		if prev, ok := seen[h]; ok {
			t.Errorf("hash collision between %#v and %#v", prev, v)
		}
		seen[h] = v
	}
}

func TestEqualsTransitivity(t *testing.T) {
	a := map[string]interface{}{"x": []interface{}{1, 2}, "y": nil}
	b := map[string]interface{}{"y": nil, "x": []interface{}{1, 2}}
	c := map[string]interface{}{"x": []interface{}{1.0, 2.0}, "y": nil}

	if !Equals(a, b) || !Equals(b, c) {
		t.Fatal("precondition failed")
	}
	if !Equals(a, c) {
		t.Fatal("transitivity violated")
	}
}

func TestHashSignedZeroCoherence(t *testing.T) {
	negZero := math.Copysign(0, -1)

	if !Equals(0.0, negZero) {
		t.Fatal("0.0 should equal -0.0")
	}
	if Hash(0.0) != Hash(negZero) {
		t.Error("0.0 and -0.0 are equal and must hash equal")
	}

	a := map[string]interface{}{"offset": 0.0}
	b := map[string]interface{}{"offset": negZero}
	if !Equals(a, b) {
		t.Fatal("maps differing only in zero sign should be equal")
	}
	if Hash(a) != Hash(b) {
		t.Error("equal maps must hash equal regardless of zero sign")
	}
}

func TestEqualsNumericKinds(t *testing.T) {
	if !Equals(int64(7), float64(7)) {
		t.Error("int64(7) should equal float64(7)")
	}
	if !Equals(uint8(7), 7) {
		t.Error("uint8(7) should equal int(7)")
	}
	if Equals(7, "7") {
		t.Error("number must not equal string")
	}
	if Hash(int64(7)) != Hash(float64(7)) {
		t.Error("equal numbers must hash equal across representations")
	}
}

// buildDeep returns two structurally equal trees with roughly n nodes each,
// sharing no substructure.
func buildDeep(n int) (interface{}, interface{}) {
	build := func() interface{} {
		var root interface{} = "leaf"
		for i := 0; i < n; i++ {
			root = map[string]interface{}{
				"child": root,
				"index": i,
				"tags":  []interface{}{"a", "b", i},
			}
		}
		return root
	}
	return build(), build()
}

func TestEqualsDeepStructure(t *testing.T) {
	a, b := buildDeep(10000)
	if !Equals(a, b) {
		t.Fatal("deep equal structures reported unequal")
	}
	if Hash(a) != Hash(b) {
		t.Fatal("deep equal structures hash differently")
	}
}

// the equality walk visits each node once. if it regresses to quadratic
// key scanning this benchmark makes it obvious as n grows.
func BenchmarkEqualsDeep(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		x, y := buildDeep(n)
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if !Equals(x, y) {
					b.Fatal("unexpected inequality")
				}
			}
		})
	}
}

func BenchmarkHashDeep(b *testing.B) {
	x, _ := buildDeep(1000)
	for i := 0; i < b.N; i++ {
		Hash(x)
	}
}
