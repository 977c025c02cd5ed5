package numeric

import (
	"errors"
	"math"
	"testing"
)

func TestSolveIdentity(t *testing.T) {
	a := NewDense(3)
	for i := 0; i < 3; i++ {
		a.Set(i, i, 1)
	}
	b := []float64{4, -2, 7}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	want := []float64{4, -2, 7}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolveRequiresPivoting(t *testing.T) {
	// Zero on the diagonal forces a row swap.
	a := NewDense(2)
	a.Set(0, 0, 0)
	a.Set(0, 1, 2)
	a.Set(1, 0, 3)
	a.Set(1, 1, 1)
	b := []float64{4, 5}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	// 2y = 4, 3x + y = 5
	if math.Abs(x[0]-1) > 1e-12 || math.Abs(x[1]-2) > 1e-12 {
		t.Errorf("got %v, want [1 2]", x)
	}
}

func TestSolveKnownSystem(t *testing.T) {
	a := NewDense(3)
	rows := [][]float64{
		{2, 1, -1},
		{-3, -1, 2},
		{-2, 1, 2},
	}
	for i, row := range rows {
		for j, v := range row {
			a.Set(i, j, v)
		}
	}
	b := []float64{8, -11, -3}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	want := []float64{2, 3, -1}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-9 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolveSingular(t *testing.T) {
	a := NewDense(2)
	a.Set(0, 0, 1)
	a.Set(0, 1, 2)
	a.Set(1, 0, 2)
	a.Set(1, 1, 4)
	b := []float64{3, 6}

	_, err := Solve(a, b)
	if !errors.Is(err, ErrSingularSystem) {
		t.Fatalf("expected ErrSingularSystem, got %v", err)
	}
}

func TestSolveSizeMismatch(t *testing.T) {
	a := NewDense(2)
	if _, err := Solve(a, []float64{1}); err == nil {
		t.Fatal("expected error for mismatched rhs")
	}
}

func TestZeroRowCol(t *testing.T) {
	a := NewDense(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a.Set(i, j, 5)
		}
	}
	a.ZeroRowCol(1)

	for j := 0; j < 3; j++ {
		want := 0.0
		if j == 1 {
			want = 1
		}
		if a.At(1, j) != want || a.At(j, 1) != want {
			t.Fatalf("row/col 1 not eliminated: %v %v", a.At(1, j), a.At(j, 1))
		}
	}
}

func TestVec3Helpers(t *testing.T) {
	v := Vec3{3, 4, 0}
	if v.Norm() != 5 {
		t.Errorf("Norm = %v, want 5", v.Norm())
	}
	u := v.Unit()
	if math.Abs(u.Norm()-1) > 1e-12 {
		t.Errorf("Unit norm = %v", u.Norm())
	}
	if (Vec3{}).Unit() != (Vec3{}) {
		t.Error("zero vector unit should stay zero")
	}
	if d := (Vec3{1, 0, 0}).Distance(Vec3{4, 4, 0}); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
	if !v.IsValid() || (Vec3{math.NaN(), 0, 0}).IsValid() {
		t.Error("IsValid misclassified")
	}
}
