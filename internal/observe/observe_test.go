package observe_test

import (
	"math"
	"testing"

	"github.com/prune-ml/prune/internal/autodiff"
	"github.com/prune-ml/prune/internal/backend/cpu"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/observe"
	"github.com/prune-ml/prune/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func close32(a, b []float32, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

// identity 2x2 linear followed by a summing 2->1 linear
func buildModel(backend adBackend) (*nn.Sequential[adBackend], *nn.Linear[adBackend]) {
	l1 := nn.NewLinear(2, 2, false, backend)
	copy(l1.Weight().Tensor().Data(), []float32{1, 0, 0, 1})
	l2 := nn.NewLinear(2, 1, false, backend)
	copy(l2.Weight().Tensor().Data(), []float32{1, 1})
	return nn.NewSequential[adBackend](l1, l2), l1
}

func TestCapture_Activation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, l1 := buildModel(backend)

	capture, err := observe.NewCapture[adBackend](model, l1)
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	if capture.Activation() != nil {
		t.Error("Activation should be nil before any forward pass")
	}

	input, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{1, 2}, backend)
	model.Forward(input)

	act := capture.Activation()
	if act == nil {
		t.Fatal("No activation captured")
	}
	if !close32(act.AsFloat32(), []float32{3, 5}, 1e-6) {
		t.Errorf("Captured activation = %v, want [3, 5]", act.AsFloat32())
	}
}

func TestCapture_SurvivesLaterOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, l1 := buildModel(backend)

	capture, err := observe.NewCapture[adBackend](model, l1)
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	input, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{1, 2}, backend)
	model.Forward(input)

	// The raw CPU backend's inplace fast path must not recycle the
	// captured buffer; the capture's pin keeps the refcount above 1
	other, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	backend.Inner().Add(capture.Activation(), other.Raw())

	if !close32(capture.Activation().AsFloat32(), []float32{3, 5}, 1e-6) {
		t.Errorf("Captured activation was modified: %v", capture.Activation().AsFloat32())
	}
}

func TestCapture_Gradient(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, l1 := buildModel(backend)

	capture, err := observe.NewCapture[adBackend](model, l1)
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()

	input, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{1, 2}, backend)
	output := model.Forward(input)

	grads := autodiff.Backward(output, backend)

	grad := capture.Gradient(grads)
	if grad == nil {
		t.Fatal("No gradient for captured activation")
	}
	// output = act[0] + act[1], so d(output)/d(act) = [1, 1]
	if !close32(grad.AsFloat32(), []float32{1, 1}, 1e-6) {
		t.Errorf("Activation gradient = %v, want [1, 1]", grad.AsFloat32())
	}
}

func TestMask_ZeroesUnits(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, l1 := buildModel(backend)

	mask, err := observe.NewMask[adBackend](model, l1, 2, backend)
	if err != nil {
		t.Fatalf("NewMask: %v", err)
	}
	defer mask.Close()

	input, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{1, 2}, backend)

	// All units enabled: unchanged
	out := model.Forward(input)
	if !close32(out.Data(), []float32{8}, 1e-6) {
		t.Errorf("Unmasked output = %v, want [8]", out.Data())
	}

	mask.Set(0, false)
	out = model.Forward(input)
	if !close32(out.Data(), []float32{5}, 1e-6) {
		t.Errorf("Output with unit 0 masked = %v, want [5]", out.Data())
	}

	mask.SetAll(false)
	out = model.Forward(input)
	if !close32(out.Data(), []float32{0}, 1e-6) {
		t.Errorf("Fully masked output = %v, want [0]", out.Data())
	}

	mask.SetAll(true)
	out = model.Forward(input)
	if !close32(out.Data(), []float32{8}, 1e-6) {
		t.Errorf("Re-enabled output = %v, want [8]", out.Data())
	}
}

func TestMask_CloseRestores(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, l1 := buildModel(backend)

	mask, err := observe.NewMask[adBackend](model, l1, 2, backend)
	if err != nil {
		t.Fatalf("NewMask: %v", err)
	}
	mask.SetAll(false)
	mask.Close()

	input, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{1, 2}, backend)
	out := model.Forward(input)
	if !close32(out.Data(), []float32{8}, 1e-6) {
		t.Errorf("Output after Close = %v, want [8]", out.Data())
	}
}

func TestCapture_UnknownTarget(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model, _ := buildModel(backend)
	stranger := nn.NewLinear(2, 2, false, backend)

	if _, err := observe.NewCapture[adBackend](model, stranger); err == nil {
		t.Error("Expected error for module outside the model")
	}
	if _, err := observe.NewMask[adBackend](model, stranger, 2, backend); err == nil {
		t.Error("Expected error for module outside the model")
	}
}
