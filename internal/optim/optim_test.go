package optim_test

import (
	"math"
	"testing"

	"github.com/prune-ml/prune/internal/autodiff"
	"github.com/prune-ml/prune/internal/backend/cpu"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/optim"
	"github.com/prune-ml/prune/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestSGD_Step(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(1, 1, false, backend)
	copy(layer.Weight().Tensor().Data(), []float32{2})

	sgd := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 0.1})

	grad, _ := tensor.NewRaw(tensor.Shape{1, 1}, tensor.Float32, tensor.CPU)
	grad.AsFloat32()[0] = 5

	sgd.Step(map[*tensor.RawTensor]*tensor.RawTensor{
		layer.Weight().Tensor().Raw(): grad,
	})

	// w = 2 - 0.1*5 = 1.5
	got := layer.Weight().Tensor().Data()[0]
	if math.Abs(float64(got)-1.5) > 1e-6 {
		t.Errorf("Weight after step = %v, want 1.5", got)
	}
}

func TestSGD_SkipsMissingGradients(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(1, 1, false, backend)
	copy(layer.Weight().Tensor().Data(), []float32{2})

	sgd := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 0.1})
	sgd.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if layer.Weight().Tensor().Data()[0] != 2 {
		t.Error("Parameter without gradient should not change")
	}
}

func TestSGD_Momentum(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(1, 1, false, backend)
	copy(layer.Weight().Tensor().Data(), []float32{0})

	sgd := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 1, Momentum: 0.5})

	grad, _ := tensor.NewRaw(tensor.Shape{1, 1}, tensor.Float32, tensor.CPU)
	grad.AsFloat32()[0] = 1
	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		layer.Weight().Tensor().Raw(): grad,
	}

	// step 1: v = 1, w = -1; step 2: v = 1.5, w = -2.5
	sgd.Step(grads)
	sgd.Step(grads)

	got := layer.Weight().Tensor().Data()[0]
	if math.Abs(float64(got)+2.5) > 1e-6 {
		t.Errorf("Weight after two momentum steps = %v, want -2.5", got)
	}
}

func TestSGD_TrainingReducesLoss(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(1, 1, false, backend)
	copy(layer.Weight().Tensor().Data(), []float32{0})
	model := nn.NewSequential[adBackend](layer)
	lossFn := nn.NewMSELoss[adBackend]()
	sgd := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1})

	input, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2, 1}, backend)
	target, _ := tensor.FromSlice([]float32{2, 4}, tensor.Shape{2, 1}, backend)

	var first, last float32
	for step := 0; step < 20; step++ {
		backend.Tape().Clear()
		backend.Tape().StartRecording()

		loss := lossFn.Forward(model.Forward(input), target)
		grads := autodiff.Backward(loss, backend)
		backend.Tape().StopRecording()

		sgd.Step(grads)
		sgd.ZeroGrad()

		if step == 0 {
			first = loss.Item()
		}
		last = loss.Item()
	}

	if last >= first {
		t.Errorf("Loss did not decrease: first %v, last %v", first, last)
	}
}
