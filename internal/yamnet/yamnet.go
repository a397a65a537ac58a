// Package yamnet wraps the YAMNet TensorFlow Lite audio classifier behind a
// narrow scoring interface so the confirmation pipeline has no dependency on
// the inference runtime.
package yamnet

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/barkwatch/barkwatch-go/internal/conf"
	"github.com/barkwatch/barkwatch-go/internal/errors"
	tflite "github.com/tphakala/go-tflite"
)

// Scores maps a tracked class id to its per-window confidence in [0, 1].
type Scores map[string]float64

// Classifier is the scoring contract consumed by the analysis pipeline.
// Predict is invoked once per window with exactly conf.WindowSamples mono
// samples in [-1, 1]. Implementations allow a single outstanding inference.
type Classifier interface {
	Predict(samples []float32) (Scores, error)
	Close()
}

// YAMNet implements Classifier with a tflite interpreter.
type YAMNet struct {
	interpreter *tflite.Interpreter
	model       *tflite.Model
	// tracked class id -> model class indices whose scores are combined via max
	classIndices map[string][]int
	numClasses   int
	mu           sync.Mutex
}

// New loads the YAMNet model and resolves the tracked class display names
// against the class map CSV.
func New(settings *conf.Settings, tracked map[string][]string) (*YAMNet, error) {
	model := tflite.NewModelFromFile(settings.YAMNet.ModelPath)
	if model == nil {
		return nil, errors.Newf("cannot load model from path: %s", settings.YAMNet.ModelPath).
			Component("yamnet").
			Category(errors.CategoryModelLoad).
			Context("model_path", settings.YAMNet.ModelPath).
			Build()
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(runtime.NumCPU())
	options.SetErrorReporter(func(msg string, userData any) {
		getLogger().Error("tflite error", "message", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, errors.Newf("cannot create tflite interpreter").
			Component("yamnet").
			Category(errors.CategoryModelInit).
			Build()
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, errors.Newf("tensor allocation failed: %v", status).
			Component("yamnet").
			Category(errors.CategoryModelInit).
			Build()
	}

	classMap, err := LoadClassMap(settings.YAMNet.ClassMapPath)
	if err != nil {
		interpreter.Delete()
		model.Delete()
		return nil, err
	}

	classIndices, err := resolveTrackedClasses(classMap, tracked)
	if err != nil {
		interpreter.Delete()
		model.Delete()
		return nil, err
	}

	yn := &YAMNet{
		interpreter:  interpreter,
		model:        model,
		classIndices: classIndices,
		numClasses:   len(classMap),
	}

	getLogger().Info("YAMNet model loaded",
		"model_path", settings.YAMNet.ModelPath,
		"classes", len(classMap))

	return yn, nil
}

// Predict runs one inference over a window of samples and returns the per
// tracked class confidence. The model emits scores per internal frame; the
// window score is the max over frames, and for classes mapped from several
// model classes additionally the max over those indices.
func (yn *YAMNet) Predict(samples []float32) (Scores, error) {
	// single outstanding inference at a time
	yn.mu.Lock()
	defer yn.mu.Unlock()

	inputTensor := yn.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, fmt.Errorf("cannot get input tensor")
	}

	copy(inputTensor.Float32s(), samples)

	if status := yn.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("yamnet").
			Category(errors.CategoryAudio).
			Context("operation", "predict").
			Build()
	}

	outputTensor := yn.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, fmt.Errorf("cannot get output tensor")
	}

	frameScores := outputTensor.Float32s()
	classCount := outputTensor.Dim(outputTensor.NumDims() - 1)
	if classCount <= 0 {
		return nil, fmt.Errorf("unexpected output tensor shape")
	}

	scores := make(Scores, len(yn.classIndices))
	for classID, indices := range yn.classIndices {
		var best float32
		for frameStart := 0; frameStart+classCount <= len(frameScores); frameStart += classCount {
			for _, idx := range indices {
				if s := frameScores[frameStart+idx]; s > best {
					best = s
				}
			}
		}
		scores[classID] = float64(best)
	}

	return scores, nil
}

// Close releases the interpreter and model.
func (yn *YAMNet) Close() {
	yn.mu.Lock()
	defer yn.mu.Unlock()
	if yn.interpreter != nil {
		yn.interpreter.Delete()
		yn.interpreter = nil
	}
	if yn.model != nil {
		yn.model.Delete()
		yn.model = nil
	}
}
