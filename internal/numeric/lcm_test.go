package numeric

import "testing"

func TestGCD(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{12, 18, 6},
		{0, 5, 5},
		{5, 0, 5},
		{7, 7, 7},
		{1, 1, 1},
	}
	for _, c := range cases {
		if got := GCD(c.a, c.b); got != c.want {
			t.Errorf("GCD(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := GCD(c.b, c.a); got != c.want {
			t.Errorf("GCD(%d,%d) not commutative: got %d, want %d", c.b, c.a, got, c.want)
		}
	}
}

func TestLCM(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{4, 6, 12},
		{100, 150, 300},
		{0, 5, 0},
		{7, 7, 7},
	}
	for _, c := range cases {
		if got := LCM(c.a, c.b); got != c.want {
			t.Errorf("LCM(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestLCMIdempotent(t *testing.T) {
	for _, a := range []uint64{1, 17, 1000, 999983} {
		if got := LCM(a, a); got != a {
			t.Errorf("LCM(%d,%d) = %d, want %d", a, a, got, a)
		}
		if got := GCD(a, a); got != a {
			t.Errorf("GCD(%d,%d) = %d, want %d", a, a, got, a)
		}
	}
}

func TestLCMMany(t *testing.T) {
	if got := LCMMany([]uint64{100, 150, 200}, nil); got != 600 {
		t.Errorf("LCMMany({100,150,200}) = %d, want 600", got)
	}
	if got := LCMMany(nil, nil); got != 0 {
		t.Errorf("LCMMany(nil) = %d, want 0", got)
	}
	if got := LCMMany([]uint64{42}, nil); got != 42 {
		t.Errorf("LCMMany({42}) = %d, want 42", got)
	}
}

func TestLCMManyWarnCeiling(t *testing.T) {
	// LCM(ceiling+1, 1) is ceiling+1: a result just past the one-hour
	// ceiling without overflowing uint64.
	got := LCMMany([]uint64{HyperperiodWarnCeilingUS + 1, 1}, nil)
	if got != HyperperiodWarnCeilingUS+1 {
		t.Errorf("LCMMany over ceiling = %d, want %d", got, HyperperiodWarnCeilingUS+1)
	}
}
