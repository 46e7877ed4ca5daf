package healthguard

import (
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The environment is shared by every open ONNXClassifier. It is created when the first
// classifier opens and destroyed when the last one closes, so it can be recreated later.
var (
	ortMu    sync.Mutex
	ortUsers int
	ortStart = func(sharedLibrary string) error {
		if ort.IsInitialized() {
			return nil
		}
		if sharedLibrary != "" {
			ort.SetSharedLibraryPath(sharedLibrary)
		}
		return ort.InitializeEnvironment()
	}
	ortStop = func() error {
		if !ort.IsInitialized() {
			return nil
		}
		return ort.DestroyEnvironment()
	}
)

func acquireONNXRuntime(sharedLibrary string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortUsers == 0 {
		if err := ortStart(sharedLibrary); err != nil {
			return err
		}
	}
	ortUsers++
	return nil
}

func releaseONNXRuntime() error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortUsers == 0 {
		return nil
	}
	ortUsers--
	if ortUsers > 0 {
		return nil
	}
	return ortStop()
}

// ONNXClassifier runs an exported classifier graph with a single float input of shape
// [N, F] and an int64 label output, as produced by skl2onnx.
type ONNXClassifier struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[int64]
	width   int
	tmpFile string
}

// NewONNXClassifier opens modelPath with the shared library at sharedLibrary.
func NewONNXClassifier(modelPath, sharedLibrary string) (*ONNXClassifier, error) {
	if err := acquireONNXRuntime(sharedLibrary); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}
	c, err := openONNXSession(modelPath)
	if err != nil {
		_ = releaseONNXRuntime()
		return nil, err
	}
	return c, nil
}

func openONNXSession(modelPath string) (*ONNXClassifier, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect onnx model: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx model has %d inputs, want 1", len(inputs))
	}
	in := inputs[0]
	if len(in.Dimensions) != 2 || in.Dimensions[1] <= 0 {
		return nil, fmt.Errorf("onnx input %q has shape %v, want [N, F]", in.Name, in.Dimensions)
	}
	label, err := pickLabelOutput(outputs)
	if err != nil {
		return nil, err
	}
	width := int(in.Dimensions[1])

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(width)), make([]float32, width))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{label.Name},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNXClassifier{session: session, input: inputTensor, output: outputTensor, width: width}, nil
}

func pickLabelOutput(outputs []ort.InputOutputInfo) (ort.InputOutputInfo, error) {
	var fallback *ort.InputOutputInfo
	for i := range outputs {
		out := outputs[i]
		if out.OrtValueType != ort.ONNXTypeTensor || out.DataType != ort.TensorElementDataTypeInt64 {
			continue
		}
		name := strings.ToLower(out.Name)
		if name == "output_label" || name == "label" {
			return out, nil
		}
		if fallback == nil {
			fallback = &outputs[i]
		}
	}
	if fallback == nil {
		return ort.InputOutputInfo{}, fmt.Errorf("onnx model has no int64 label output")
	}
	return *fallback, nil
}

// NumFeatures returns the width of the model input.
func (c *ONNXClassifier) NumFeatures() int {
	return c.width
}

// Predict copies x into the input tensor, runs the session and returns the label.
func (c *ONNXClassifier) Predict(x FeatureVector) (int, error) {
	if len(x) != c.width {
		return 0, &ShapeError{Want: c.width, Got: len(x)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, fmt.Errorf("onnx session is closed")
	}
	data := c.input.GetData()
	for i, v := range x {
		data[i] = float32(v)
	}
	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("run onnx session: %w", err)
	}
	return int(c.output.GetData()[0]), nil
}

// Close releases the session, its tensors and any temporary model copy. The runtime
// environment goes away with the last open classifier.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.input.Destroy()
	c.output.Destroy()
	c.session = nil
	if c.tmpFile != "" {
		_ = os.Remove(c.tmpFile)
	}
	if rerr := releaseONNXRuntime(); err == nil {
		err = rerr
	}
	return err
}
