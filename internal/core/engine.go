package core

import "context"

// NativeEngine runs a pipeline's Build function in-process and packages the
// result.
type NativeEngine struct {
	Pipeline Pipeline
}

// Convert implements Engine. The context is not observed; conversion is
// CPU-bound and proportional to the input size.
func (e NativeEngine) Convert(_ context.Context, in Input) (*Result, error) {
	data, err := in.Bytes()
	if err != nil {
		return nil, err
	}

	text, err := e.Pipeline.Build(data)
	if err != nil {
		return nil, err
	}

	return Package(text, in.OutputDir, in.Options.OutName(e.Pipeline.DefaultOutName))
}

// BackendFactory builds the engine an alternative backend uses for a pipeline.
type BackendFactory func(p Pipeline) Engine
