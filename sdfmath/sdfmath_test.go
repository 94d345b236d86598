package sdfmath

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
)

func approx(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol*math32.Max(1, math32.Max(math32.Abs(a), math32.Abs(b)))
}

func randVec[V Vector](rng *rand.Rand) V {
	var v V
	for i := 0; i < len(v); i++ {
		v[i] = 20*rng.Float32() - 10
	}
	return v
}

func TestMixBounds(t *testing.T) {
	testMixBounds[Vec2](t)
	testMixBounds[Vec3](t)
	testMixBounds[Vec4](t)
}

func testMixBounds[V Vector](t *testing.T) {
	const tol = 1e-6
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 1000; n++ {
		a, b := randVec[V](rng), randVec[V](rng)
		w1, w2 := rng.Float32()+1e-3, rng.Float32()+1e-3
		got := MixVec(a, b, w1, w2)
		for i := 0; i < len(got); i++ {
			lo, hi := math32.Min(a[i], b[i]), math32.Max(a[i], b[i])
			margin := tol * math32.Max(1, math32.Abs(a[i])+math32.Abs(b[i]))
			if got[i] < lo-margin || got[i] > hi+margin {
				t.Fatalf("mix(%v,%v,%g,%g)[%d]=%g outside [%g,%g]", a, b, w1, w2, i, got[i], lo, hi)
			}
		}
		same := MixVec(a, a, w1, w2)
		for i := 0; i < len(same); i++ {
			if !approx(same[i], a[i], tol) {
				t.Fatalf("mix(a,a) not idempotent: got %v want %v", same, a)
			}
		}
	}
}

func TestMixBoundaryWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for n := 0; n < 100; n++ {
		a, b := randVec[Vec4](rng), randVec[Vec4](rng)
		if got := MixVec(a, b, 1, 0); got != a {
			t.Errorf("mix(a,b,1,0)=%v want %v", got, a)
		}
		if got := MixVec(a, b, 0, 1); got != b {
			t.Errorf("mix(a,b,0,1)=%v want %v", got, b)
		}
	}
	if got := Mix(2, 4, 1, 1); got != 3 {
		t.Errorf("scalar mix got %g want 3", got)
	}
	if got := Mix(2, 4, 3, 1); got != 2.5 {
		t.Errorf("weighted scalar mix got %g want 2.5", got)
	}
}

func TestClamp01(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for n := 0; n < 500; n++ {
		v := randVec[Vec3](rng)
		c := Clamp01Vec(v)
		for i, x := range c {
			if x < 0 || x > 1 {
				t.Fatalf("component %d of clamp01(%v) out of range: %g", i, v, x)
			}
		}
		if Clamp01Vec(c) != c {
			t.Fatalf("clamp01 not idempotent for %v", v)
		}
	}
	for _, test := range []struct{ in, want float32 }{
		{-1, 0}, {0, 0}, {0.25, 0.25}, {1, 1}, {7, 1},
	} {
		if got := Clamp01(test.in); got != test.want {
			t.Errorf("Clamp01(%g)=%g want %g", test.in, got, test.want)
		}
	}
}

func TestMaxMinComponent(t *testing.T) {
	testComponentPermutations[Vec2](t)
	testComponentPermutations[Vec3](t)
	testComponentPermutations[Vec4](t)
	ties := []struct {
		v        Vec3
		max, min float32
	}{
		{Vec3{1, 1, 1}, 1, 1},
		{Vec3{2, 2, -1}, 2, -1},
		{Vec3{-3, 5, -3}, 5, -3},
	}
	for _, test := range ties {
		if got := MaxComponent(test.v); got != test.max {
			t.Errorf("MaxComponent(%v)=%g want %g", test.v, got, test.max)
		}
		if got := MinComponent(test.v); got != test.min {
			t.Errorf("MinComponent(%v)=%g want %g", test.v, got, test.min)
		}
	}
	if got := MaxComponent(Vec2{-1, 3}); got != 3 {
		t.Errorf("MaxComponent Vec2 got %g", got)
	}
}

// testComponentPermutations checks the extreme components do not depend on their position.
func testComponentPermutations[V Vector](t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for n := 0; n < 500; n++ {
		v := randVec[V](rng)
		wantMax, wantMin := v[0], v[0]
		for i := 1; i < len(v); i++ {
			wantMax = max(wantMax, v[i])
			wantMin = min(wantMin, v[i])
		}
		var p V
		for i, j := range rng.Perm(len(v)) {
			p[i] = v[j]
		}
		if MaxComponent(v) != wantMax || MaxComponent(p) != wantMax {
			t.Fatalf("max component of %v (perm %v) want %g", v, p, wantMax)
		}
		if MinComponent(v) != wantMin || MinComponent(p) != wantMin {
			t.Fatalf("min component of %v (perm %v) want %g", v, p, wantMin)
		}
	}
}

func TestSmoothStep01(t *testing.T) {
	if SmoothStep01(0) != 0 || SmoothStep01(1) != 1 {
		t.Fatal("smoothstep endpoints", SmoothStep01(0), SmoothStep01(1))
	}
	if got := SmoothStep01(0.5); got != 0.5 {
		t.Errorf("smoothstep midpoint got %g", got)
	}
	prev := SmoothStep01(0)
	for i := 1; i <= 1000; i++ {
		x := float32(i) / 1000
		s := SmoothStep01(x)
		if s < prev {
			t.Fatalf("smoothstep decreasing at %g: %g < %g", x, s, prev)
		}
		prev = s
	}
	if SmoothStep01(-2) != 0 || SmoothStep01(3) != 1 {
		t.Error("smoothstep does not saturate outside [0,1]")
	}
}

func TestAngles(t *testing.T) {
	const tol = 1e-6
	r := ToRadians(Deg(180))
	if !approx(r.Value(), math32.Pi, tol) {
		t.Errorf("180 degrees = %g radians, want pi", r.Value())
	}
	if Deg(90).Radians() != ToRadians(Deg(90)) {
		t.Error("Degrees.Radians mismatch with ToRadians")
	}
	rng := rand.New(rand.NewSource(5))
	for n := 0; n < 100; n++ {
		r := Rad(20*rng.Float32() - 10)
		if r.Neg().Neg() != r {
			t.Fatalf("double negation of %v", r)
		}
		if r.Div(1) != r {
			t.Fatalf("division by one of %v", r)
		}
		if got := r.Div(2).Value(); got != r.Value()/2 {
			t.Fatalf("halving %v got %g", r, got)
		}
	}
	s, c := Rad(math32.Pi / 2).Sincos()
	if !approx(s, 1, tol) || !approx(c, 0, tol) {
		t.Errorf("sincos(pi/2)=%g,%g", s, c)
	}
}
