package cpu

import (
	"testing"

	"github.com/prune-ml/prune/internal/tensor"
)

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-6
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected device CPU, got %v", backend.Device())
	}
}

func TestCPUBackend_Add(t *testing.T) {
	backend := New()

	t.Run("SameShape", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFromFloat32(t, []float32{10, 11, 12, 13, 14, 15}, tensor.Shape{2, 3})

		result := backend.Add(a, b)

		expected := []float32{11, 13, 15, 17, 19, 21}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("InplaceOptimization", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
		b := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})

		result := backend.Add(a, b)

		// a is unique, so the result reuses its buffer
		if result != a {
			t.Error("Expected inplace result to reuse a's buffer")
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{11, 22, 33}) {
			t.Errorf("Inplace add failed: got %v", result.AsFloat32())
		}
	})

	t.Run("CloneBlocksInplace", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
		b := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})

		pin := a.Clone()
		defer pin.Release()

		result := backend.Add(a, b)

		if result == a {
			t.Error("Expected fresh allocation when buffer is shared")
		}
		if !float32SliceEqual(a.AsFloat32(), []float32{1, 2, 3}) {
			t.Errorf("Input was modified: %v", a.AsFloat32())
		}
	})

	t.Run("Broadcast", func(t *testing.T) {
		a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
		b := rawFromFloat32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

		result := backend.Add(a, b)

		if !result.Shape().Equal(tensor.Shape{2, 3}) {
			t.Fatalf("Broadcast shape wrong: %v", result.Shape())
		}
		expected := []float32{11, 22, 33, 14, 25, 36}
		if !float32SliceEqual(result.AsFloat32(), expected) {
			t.Errorf("Broadcast add failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})
}

func TestCPUBackend_SubMulDiv(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	aPin := a.Clone()
	defer aPin.Release()
	b := rawFromFloat32(t, []float32{2, 4, 5, 8}, tensor.Shape{2, 2})
	bPin := b.Clone()
	defer bPin.Release()

	sub := backend.Sub(a, b)
	if !float32SliceEqual(sub.AsFloat32(), []float32{8, 16, 25, 32}) {
		t.Errorf("Sub failed: got %v", sub.AsFloat32())
	}

	mul := backend.Mul(a, b)
	if !float32SliceEqual(mul.AsFloat32(), []float32{20, 80, 150, 320}) {
		t.Errorf("Mul failed: got %v", mul.AsFloat32())
	}

	div := backend.Div(a, b)
	if !float32SliceEqual(div.AsFloat32(), []float32{5, 5, 6, 5}) {
		t.Errorf("Div failed: got %v", div.AsFloat32())
	}
}

func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()

	// (2,3) @ (3,2) -> (2,2)
	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFromFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("MatMul shape wrong: %v", result.Shape())
	}
	expected := []float32{58, 64, 139, 154}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("MatMul failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestCPUBackend_MatMul_DimensionMismatch(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFromFloat32(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on inner dimension mismatch")
		}
	}()
	backend.MatMul(a, b)
}

func TestCPUBackend_Transpose(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := backend.Transpose(a)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape wrong: %v", result.Shape())
	}
	expected := []float32{1, 4, 2, 5, 3, 6}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Transpose failed: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestCPUBackend_Reshape(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	result := backend.Reshape(a, tensor.Shape{3, 2})

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape wrong: %v", result.Shape())
	}
	if !float32SliceEqual(result.AsFloat32(), a.AsFloat32()) {
		t.Errorf("Reshape changed data: got %v", result.AsFloat32())
	}
}

func TestCPUBackend_ScaleAddScalar(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, -2, 3}, tensor.Shape{3})
	aPin := a.Clone()
	defer aPin.Release()

	scaled := backend.Scale(a, 2)
	if !float32SliceEqual(scaled.AsFloat32(), []float32{2, -4, 6}) {
		t.Errorf("Scale failed: got %v", scaled.AsFloat32())
	}

	shifted := backend.AddScalar(a, 1.5)
	if !float32SliceEqual(shifted.AsFloat32(), []float32{2.5, -0.5, 4.5}) {
		t.Errorf("AddScalar failed: got %v", shifted.AsFloat32())
	}
}

func TestCPUBackend_Activations(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{5})
	aPin := a.Clone()
	defer aPin.Release()

	relu := backend.ReLU(a)
	if !float32SliceEqual(relu.AsFloat32(), []float32{0, 0, 0, 0.5, 2}) {
		t.Errorf("ReLU failed: got %v", relu.AsFloat32())
	}

	sig := backend.Sigmoid(a)
	got := sig.AsFloat32()
	if got[2] != 0.5 {
		t.Errorf("Sigmoid(0) = %v, expected 0.5", got[2])
	}
	if got[0] >= got[1] || got[1] >= got[2] || got[2] >= got[3] || got[3] >= got[4] {
		t.Errorf("Sigmoid not monotonic: %v", got)
	}
}

func TestCPUBackend_Reductions(t *testing.T) {
	backend := New()

	a := rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := backend.Sum(a)
	if sum.AsFloat32()[0] != 21 {
		t.Errorf("Sum failed: got %v", sum.AsFloat32()[0])
	}

	mean := backend.Mean(a)
	if mean.AsFloat32()[0] != 3.5 {
		t.Errorf("Mean failed: got %v", mean.AsFloat32()[0])
	}

	t.Run("SumDim0", func(t *testing.T) {
		result := backend.SumDim(a, 0, false)
		if !result.Shape().Equal(tensor.Shape{3}) {
			t.Fatalf("SumDim shape wrong: %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{5, 7, 9}) {
			t.Errorf("SumDim(0) failed: got %v", result.AsFloat32())
		}
	})

	t.Run("SumDim1KeepDim", func(t *testing.T) {
		result := backend.SumDim(a, 1, true)
		if !result.Shape().Equal(tensor.Shape{2, 1}) {
			t.Fatalf("SumDim keepDim shape wrong: %v", result.Shape())
		}
		if !float32SliceEqual(result.AsFloat32(), []float32{6, 15}) {
			t.Errorf("SumDim(1, keepDim) failed: got %v", result.AsFloat32())
		}
	})

	t.Run("MeanDim0", func(t *testing.T) {
		result := backend.MeanDim(a, 0, false)
		if !float32SliceEqual(result.AsFloat32(), []float32{2.5, 3.5, 4.5}) {
			t.Errorf("MeanDim(0) failed: got %v", result.AsFloat32())
		}
	})
}

func TestCPUBackend_Float64(t *testing.T) {
	backend := New()

	a, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	b, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(a.AsFloat64(), []float64{1.5, 2.5})
	copy(b.AsFloat64(), []float64{0.5, 0.5})

	result := backend.Add(a, b)
	got := result.AsFloat64()
	if got[0] != 2.0 || got[1] != 3.0 {
		t.Errorf("Float64 add failed: got %v", got)
	}
}
