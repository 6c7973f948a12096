// Package main provides the Prune framework CLI.
//
// It builds a small reference regression model, runs the selected
// attribution metric against its hidden layer, and prints per-unit scores.
// Useful as a smoke test and as a usage example for the library.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/prune-ml/prune/attribution"
	"github.com/prune-ml/prune/autodiff"
	"github.com/prune-ml/prune/backend/cpu"
	"github.com/prune-ml/prune/dataset"
	"github.com/prune-ml/prune/nn"
	"github.com/prune-ml/prune/optim"
	"github.com/prune-ml/prune/tensor"
)

const version = "v0.1.0-dev"

type backendT = *autodiff.Backend[*cpu.Backend]

func main() {
	metricName := flag.String("metric", "taylor", "metric to run: random, weightnorm, apoz, sensitivity, taylor, taylor-signed, shapley, all")
	samples := flag.Int("samples", 1000, "permutation samples per batch (shapley)")
	seed := flag.Int64("seed", 42, "random seed (random, shapley)")
	ord := flag.Float64("ord", 1, "norm order (weightnorm)")
	finetune := flag.Int("finetune", 0, "SGD steps to run before scoring")
	lr := flag.Float64("lr", 0.01, "learning rate for fine-tuning")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Prune %s\n", version)
		return
	}

	backend := autodiff.New(cpu.New())
	loader, model, hidden := buildModel(backend)
	criterion := nn.NewMSELoss[backendT]()

	if *finetune > 0 {
		train(backend, model, loader, criterion, *finetune, *lr)
	}

	metrics, err := selectMetrics(*metricName, model, loader, criterion.Forward, attributionOptions{
		samples: *samples,
		seed:    *seed,
		ord:     *ord,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		scores, runErr := metrics[name].Run(hidden)
		if runErr != nil {
			log.Fatalf("%s: %v", name, runErr)
		}
		fmt.Printf("%-13s", name)
		for _, s := range scores {
			fmt.Printf(" %8.4f", s)
		}
		fmt.Println()
	}
}

type attributionOptions struct {
	samples int
	seed    int64
	ord     float64
}

// buildModel constructs the reference max-regression fixture: a 2-4-1 MLP
// whose hidden units have known importance order.
func buildModel(backend backendT) (*dataset.Loader[backendT], *nn.Sequential[backendT], *nn.Linear[backendT]) {
	x, err := tensor.FromSlice([]float32{
		0, 1,
		1, 0,
		1, 2,
		2, 1,
	}, tensor.Shape{4, 2}, backend)
	if err != nil {
		log.Fatal(err)
	}
	y, err := tensor.FromSlice([]float32{1, 1, 2, 2}, tensor.Shape{4, 1}, backend)
	if err != nil {
		log.Fatal(err)
	}

	hidden := nn.NewLinear(2, 4, false, backend)
	copy(hidden.Weight().Tensor().Data(), []float32{
		-0.5, 0.5,
		1, -1,
		1, 1,
		1, 1,
	})

	head := nn.NewLinear(4, 1, false, backend)
	copy(head.Weight().Tensor().Data(), []float32{1, 0.5, 0.5, -0.1})

	model := nn.NewSequential[backendT](hidden, nn.NewReLU[backendT](), head)

	loader, err := dataset.New(x, y, 1)
	if err != nil {
		log.Fatal(err)
	}
	return loader, model, hidden
}

func train(backend backendT, model *nn.Sequential[backendT], loader *dataset.Loader[backendT], criterion *nn.MSELoss[backendT], steps int, lr float64) {
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: float32(lr)})
	tape := backend.Tape()

	for step := 0; step < steps; step++ {
		loader.Reset()
		var last float32
		for {
			xb, yb, ok := loader.Next()
			if !ok {
				break
			}
			tape.Clear()
			tape.StartRecording()
			loss := criterion.Forward(model.Forward(xb), yb)
			grads := autodiff.Backward(loss, backend)
			tape.StopRecording()
			optimizer.Step(grads)
			last = loss.Item()
		}
		if step == 0 || step == steps-1 {
			log.Printf("fine-tune step %d loss %.6f", step+1, last)
		}
	}
	tape.Clear()
}

func selectMetrics(name string, model *nn.Sequential[backendT], loader *dataset.Loader[backendT], loss attribution.LossFunc[backendT], opts attributionOptions) (map[string]attribution.Metric[backendT], error) {
	all := map[string]attribution.Metric[backendT]{
		"random":        attribution.NewRandom[backendT](model, loader, loss, attribution.RandomConfig{Seed: opts.seed}),
		"weightnorm":    attribution.NewWeightNorm[backendT](model, loader, loss, attribution.WeightNormConfig{Ord: opts.ord}),
		"apoz":          attribution.NewAPoZ[backendT](model, loader, loss),
		"sensitivity":   attribution.NewSensitivity[backendT](model, loader, loss),
		"taylor":        attribution.NewTaylor[backendT](model, loader, loss, attribution.TaylorConfig{}),
		"taylor-signed": attribution.NewTaylor[backendT](model, loader, loss, attribution.TaylorConfig{Signed: true}),
		"shapley":       attribution.NewShapley[backendT](model, loader, loss, attribution.ShapleyConfig{Samples: opts.samples, Seed: opts.seed}),
	}

	if name == "all" {
		return all, nil
	}
	metric, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", name)
	}
	return map[string]attribution.Metric[backendT]{name: metric}, nil
}
