package attribution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prune-ml/prune/internal/attribution"
	"github.com/prune-ml/prune/internal/autodiff"
	"github.com/prune-ml/prune/internal/backend/cpu"
	"github.com/prune-ml/prune/internal/dataset"
	"github.com/prune-ml/prune/internal/nn"
	"github.com/prune-ml/prune/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// maxModel builds the symmetric max-regression fixture: the model learns
// y = max(x1, x2) through a 4-unit hidden layer.
//
// Version 1 is an exact solution where hidden unit D has a zero outgoing
// weight; version 2 gives D a small non-zero edge so gradient-based
// metrics see it.
func maxModel(t *testing.T, backend adBackend, version int) (*dataset.Loader[adBackend], *nn.Sequential[adBackend], *nn.Linear[adBackend]) {
	t.Helper()

	x, err := tensor.FromSlice([]float32{
		0, 1,
		1, 0,
		1, 2,
		2, 1,
	}, tensor.Shape{4, 2}, backend)
	require.NoError(t, err)

	y, err := tensor.FromSlice([]float32{1, 1, 2, 2}, tensor.Shape{4, 1}, backend)
	require.NoError(t, err)

	linear1 := nn.NewLinear(2, 4, false, backend)
	// hidden units: A detects x2>x1, B detects x1>x2, C sums, D copies C
	copy(linear1.Weight().Tensor().Data(), []float32{
		-0.5, 0.5,
		1, -1,
		1, 1,
		1, 1,
	})

	linear2 := nn.NewLinear(4, 1, false, backend)
	switch version {
	case 1:
		copy(linear2.Weight().Tensor().Data(), []float32{1, 0.5, 0.5, 0})
	case 2:
		copy(linear2.Weight().Tensor().Data(), []float32{1, 0.5, 0.5, -0.1})
	default:
		t.Fatalf("unknown model version %d", version)
	}

	model := nn.NewSequential[adBackend](linear1, nn.NewReLU[adBackend](), linear2)

	loader, err := dataset.New(x, y, 1)
	require.NoError(t, err)

	return loader, model, linear1
}

func mseLoss() attribution.LossFunc[adBackend] {
	return nn.NewMSELoss[adBackend]().Forward
}

func TestMaxModel_ExactFit(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, _ := maxModel(t, backend, 1)

	expected := []float32{1, 1, 2, 2}
	i := 0
	for {
		xb, _, ok := loader.Next()
		if !ok {
			break
		}
		pred := model.Forward(xb)
		assert.InDelta(t, expected[i], pred.Item(), 1e-6)
		i++
	}
	assert.Equal(t, 4, i)
}

func TestRandom(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewRandom[adBackend](model, loader, mseLoss(), attribution.RandomConfig{Seed: 7})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	for _, s := range scores {
		assert.GreaterOrEqual(t, s, float32(0))
		assert.Less(t, s, float32(1))
	}

	// Same seed reproduces the same ranking
	again := attribution.NewRandom[adBackend](model, loader, mseLoss(), attribution.RandomConfig{Seed: 7})
	scores2, err := again.Run(linear1)
	require.NoError(t, err)
	assert.Equal(t, scores, scores2)
}

func TestWeightNorm(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewWeightNorm[adBackend](model, loader, mseLoss(), attribution.WeightNormConfig{})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	expected := []float32{1, 2, 2, 2}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "unit %d", u)
	}
}

func TestWeightNorm_L2(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewWeightNorm[adBackend](model, loader, mseLoss(), attribution.WeightNormConfig{Ord: 2})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)

	expected := []float32{0.70710678, 1.41421356, 1.41421356, 1.41421356}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "unit %d", u)
	}
}

func TestWeightNorm_RepeatedRuns(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewWeightNorm[adBackend](model, loader, mseLoss(), attribution.WeightNormConfig{})
	first, err := metric.Run(linear1)
	require.NoError(t, err)

	second, err := metric.Run(linear1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWeightNorm_LayerWithoutWeights(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, _ := maxModel(t, backend, 1)
	relu := model.Module(1)

	metric := attribution.NewWeightNorm[adBackend](model, loader, mseLoss(), attribution.WeightNormConfig{})
	_, err := metric.Run(relu)
	assert.ErrorIs(t, err, attribution.ErrInvalidLayer)
}

func TestAPoZ(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewAPoZ[adBackend](model, loader, mseLoss())
	scores, err := metric.Run(linear1)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	// A and B each fire on half the inputs; C and D always fire
	expected := []float32{0.5, 0.5, 1, 1}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-6, "unit %d", u)
	}
}

func TestAPoZ_SigmoidAlwaysActive(t *testing.T) {
	backend := autodiff.New(cpu.New())

	linear := nn.NewLinear(2, 3, false, backend)
	sigmoid := nn.NewSigmoid[adBackend]()
	model := nn.NewSequential[adBackend](linear, sigmoid)

	x, _ := tensor.FromSlice([]float32{1, -1, 0, 2}, tensor.Shape{2, 2}, backend)
	y, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{2, 1}, backend)
	loader, err := dataset.New(x, y, 2)
	require.NoError(t, err)

	metric := attribution.NewAPoZ[adBackend](model, loader, mseLoss())
	scores, err := metric.Run(sigmoid)
	require.NoError(t, err)

	// Sigmoid outputs lie in (0, 1), so every unit is always active
	for u, s := range scores {
		assert.InDelta(t, 1, s, 1e-6, "unit %d", u)
	}
}

func TestSensitivity_ExactFit(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewSensitivity[adBackend](model, loader, mseLoss())
	scores, err := metric.Run(linear1)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	// Zero loss everywhere means zero gradient everywhere
	for u, s := range scores {
		assert.InDelta(t, 0, s, 1e-6, "unit %d", u)
	}
}

func TestSensitivity(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 2)

	metric := attribution.NewSensitivity[adBackend](model, loader, mseLoss())
	scores, err := metric.Run(linear1)
	require.NoError(t, err)

	// A carries double B's outgoing weight; B fires half the time so it
	// gets half of C's gradient mass; D's edge is 5x smaller than C's.
	expected := []float32{0.2, 0.1, 0.2, 0.04}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "unit %d", u)
	}
}

func TestSensitivity_RepeatedRuns(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 2)

	metric := attribution.NewSensitivity[adBackend](model, loader, mseLoss())
	first, err := metric.Run(linear1)
	require.NoError(t, err)

	second, err := metric.Run(linear1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTaylor_ExactFit(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewTaylor[adBackend](model, loader, mseLoss(), attribution.TaylorConfig{})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)

	for u, s := range scores {
		assert.InDelta(t, 0, s, 1e-6, "unit %d", u)
	}
}

func TestTaylor(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 2)

	metric := attribution.NewTaylor[adBackend](model, loader, mseLoss(), attribution.TaylorConfig{})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)

	expected := []float32{0.1, 0.1, 0.5, 0.1}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "unit %d", u)
	}
}

func TestTaylor_RepeatedRuns(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 2)

	metric := attribution.NewTaylor[adBackend](model, loader, mseLoss(), attribution.TaylorConfig{})
	first, err := metric.Run(linear1)
	require.NoError(t, err)

	second, err := metric.Run(linear1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTaylor_Signed(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 2)

	metric := attribution.NewTaylor[adBackend](model, loader, mseLoss(), attribution.TaylorConfig{Signed: true})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)

	// D's negative score says removing it would lower the loss
	expected := []float32{0.1, 0.1, 0.5, -0.1}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "unit %d", u)
	}
}

func TestShapley(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewShapley[adBackend](model, loader, mseLoss(), attribution.ShapleyConfig{
		Samples: 500,
		Seed:    42,
	})
	scores, err := metric.Run(linear1)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	// Exact Shapley values of the fixture; C dominates, D is dead weight
	expected := []float32{0.375, 0.375, 1.75, 0}
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 0.1, "unit %d", u)
	}
}

func TestShapley_Deterministic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewShapley[adBackend](model, loader, mseLoss(), attribution.ShapleyConfig{
		Samples: 20,
		Seed:    5,
	})

	first, err := metric.Run(linear1)
	require.NoError(t, err)
	second, err := metric.Run(linear1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestShapley_RestoresModel(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewShapley[adBackend](model, loader, mseLoss(), attribution.ShapleyConfig{
		Samples: 5,
		Seed:    1,
	})
	_, err := metric.Run(linear1)
	require.NoError(t, err)

	// The masking hook must be gone: the model predicts exactly again
	input, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	pred := model.Forward(input)
	assert.InDelta(t, 2, pred.Item(), 1e-6)
}

func TestShapley_InvalidSamples(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, linear1 := maxModel(t, backend, 1)

	metric := attribution.NewShapley[adBackend](model, loader, mseLoss(), attribution.ShapleyConfig{Samples: 0})
	_, err := metric.Run(linear1)
	assert.ErrorIs(t, err, attribution.ErrInvalidConfiguration)
}

func TestMetrics_LayerOutsideModel(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loader, model, _ := maxModel(t, backend, 1)
	stranger := nn.NewLinear(2, 4, false, backend)

	metrics := []attribution.Metric[adBackend]{
		attribution.NewRandom[adBackend](model, loader, mseLoss(), attribution.RandomConfig{}),
		attribution.NewWeightNorm[adBackend](model, loader, mseLoss(), attribution.WeightNormConfig{}),
		attribution.NewAPoZ[adBackend](model, loader, mseLoss()),
		attribution.NewSensitivity[adBackend](model, loader, mseLoss()),
		attribution.NewTaylor[adBackend](model, loader, mseLoss(), attribution.TaylorConfig{}),
		attribution.NewShapley[adBackend](model, loader, mseLoss(), attribution.ShapleyConfig{Samples: 1}),
	}

	for i, metric := range metrics {
		_, err := metric.Run(stranger)
		assert.ErrorIs(t, err, attribution.ErrInvalidLayer, "metric %d", i)
	}
}

func TestGradientMetrics_RequireAutodiff(t *testing.T) {
	backend := cpu.New()

	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	y, _ := tensor.FromSlice([]float32{1}, tensor.Shape{1, 1}, backend)
	loader, err := dataset.New(x, y, 1)
	require.NoError(t, err)

	linear := nn.NewLinear(2, 4, false, backend)
	model := nn.NewSequential[*cpu.CPUBackend](linear, nn.NewReLU[*cpu.CPUBackend]())
	loss := nn.NewMSELoss[*cpu.CPUBackend]()

	metric := attribution.NewSensitivity[*cpu.CPUBackend](model, loader, loss.Forward)
	_, err = metric.Run(linear)
	assert.ErrorIs(t, err, attribution.ErrInvalidConfiguration)
}
