//go:build windows

package webgpu

import (
	"testing"

	"github.com/prune-ml/prune/internal/tensor"
)

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
}

func TestNew(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	if backend.Name() == "" {
		t.Error("Backend name should not be empty")
	}
	t.Logf("Backend name: %s", backend.Name())

	if backend.Device() != tensor.WebGPU {
		t.Errorf("Expected device WebGPU, got %v", backend.Device())
	}
}

func TestBackendInterface(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	var _ tensor.Backend = backend
}

func TestAdd(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	a, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, tensor.WebGPU)
	copy(a.AsFloat32(), []float32{1, 2, 3, 4})
	b, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, tensor.WebGPU)
	copy(b.AsFloat32(), []float32{10, 20, 30, 40})

	result := backend.Add(a, b)
	expected := []float32{11, 22, 33, 44}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("Add[%d] = %v, want %v", i, v, expected[i])
		}
	}
}

func TestMatMul(t *testing.T) {
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	defer backend.Release()

	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.WebGPU)
	copy(a.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
	b, _ := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, tensor.WebGPU)
	copy(b.AsFloat32(), []float32{7, 8, 9, 10, 11, 12})

	result := backend.MatMul(a, b)
	expected := []float32{58, 64, 139, 154}
	for i, v := range result.AsFloat32() {
		if v != expected[i] {
			t.Errorf("MatMul[%d] = %v, want %v", i, v, expected[i])
		}
	}
}
