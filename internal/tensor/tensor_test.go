package tensor_test

import (
	"testing"

	"github.com/prune-ml/prune/internal/backend/cpu"
	"github.com/prune-ml/prune/internal/tensor"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape tensor.Shape
		want  int
	}{
		{tensor.Shape{}, 1},
		{tensor.Shape{5}, 5},
		{tensor.Shape{2, 3}, 6},
		{tensor.Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := tensor.Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides() = %v, want %v", strides, want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (tensor.Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (tensor.Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension accepted")
	}
	if err := (tensor.Shape{-1}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}

func TestBroadcastShapes(t *testing.T) {
	shape, needed, err := tensor.BroadcastShapes(tensor.Shape{4, 3}, tensor.Shape{1, 3})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	if !needed {
		t.Error("expected broadcasting to be needed")
	}
	if !shape.Equal(tensor.Shape{4, 3}) {
		t.Errorf("broadcast shape = %v, want [4 3]", shape)
	}

	shape, needed, err = tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{3})
	if err != nil {
		t.Fatalf("BroadcastShapes: %v", err)
	}
	if !needed || !shape.Equal(tensor.Shape{2, 3}) {
		t.Errorf("broadcast of [2 3] and [3] = %v (needed %v)", shape, needed)
	}

	if _, _, err = tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{4}); err == nil {
		t.Error("incompatible shapes accepted")
	}
}

func TestNewRaw(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}

	if raw.NumElements() != 6 {
		t.Errorf("NumElements = %d, want 6", raw.NumElements())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}
	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v, want zero-initialized", i, v)
		}
	}

	if _, err := tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.CPU); err == nil {
		t.Error("invalid shape accepted")
	}
}

func TestRawCloneSharesBuffer(t *testing.T) {
	raw, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if !raw.IsUnique() {
		t.Fatal("fresh tensor should be unique")
	}

	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("tensor should not be unique after Clone")
	}

	// Writes through either view are visible in both
	raw.AsFloat32()[0] = 7
	if clone.AsFloat32()[0] != 7 {
		t.Error("clone does not share buffer")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("tensor should be unique again after clone release")
	}
}

func TestForceNonUnique(t *testing.T) {
	raw, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)

	restore := raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("tensor should not be unique while pinned")
	}
	restore()
	if !raw.IsUnique() {
		t.Error("tensor should be unique after restore")
	}
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", x.At(1, 2))
	}
	x.Set(9, 0, 1)
	if x.At(0, 1) != 9 {
		t.Errorf("Set/At round trip = %v, want 9", x.At(0, 1))
	}

	if _, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend); err == nil {
		t.Error("length mismatch accepted")
	}
}

func TestItem(t *testing.T) {
	backend := cpu.New()

	s, _ := tensor.FromSlice([]float32{42}, tensor.Shape{1}, backend)
	if s.Item() != 42 {
		t.Errorf("Item = %v, want 42", s.Item())
	}

	defer func() {
		if recover() == nil {
			t.Error("Item on multi-element tensor should panic")
		}
	}()
	m, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	m.Item()
}

func TestTensorOps(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, backend)

	// Pin a so the CPU backend's inplace fast path cannot consume it.
	pin := a.Raw().ForceNonUnique()
	defer pin()

	sum := a.Add(b)
	want := []float32{11, 22, 33, 44}
	for i, v := range sum.Data() {
		if v != want[i] {
			t.Errorf("Add[%d] = %v, want %v", i, v, want[i])
		}
	}
	if a.At(0, 0) != 1 {
		t.Errorf("pinned operand mutated: a[0,0] = %v, want 1", a.At(0, 0))
	}

	total := a.Sum()
	if total.Item() != 10 {
		t.Errorf("Sum = %v, want 10", total.Item())
	}

	transposed := a.T()
	if transposed.At(0, 1) != 3 {
		t.Errorf("T()[0,1] = %v, want 3", transposed.At(0, 1))
	}
}

func TestTensorAddInplaceReusesBuffer(t *testing.T) {
	backend := cpu.New()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, backend)

	// A uniquely-referenced operand is consumed in place.
	sum := a.Add(b)
	if sum.Raw() != a.Raw() {
		t.Error("Add on unique operand should reuse its buffer")
	}
	if a.At(0) != 11 || a.At(1) != 22 {
		t.Errorf("operand = [%v %v], want [11 22]", a.At(0), a.At(1))
	}
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	zeros := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	for _, v := range zeros.Data() {
		if v != 0 {
			t.Fatal("Zeros produced non-zero element")
		}
	}

	ones := tensor.Ones[float32](tensor.Shape{3}, backend)
	for _, v := range ones.Data() {
		if v != 1 {
			t.Fatal("Ones produced non-one element")
		}
	}

	full := tensor.Full[float32](tensor.Shape{2}, 3.5, backend)
	if full.At(0) != 3.5 || full.At(1) != 3.5 {
		t.Error("Full did not fill with value")
	}
}
