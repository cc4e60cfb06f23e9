// Package models - registry for pose-estimation models.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/pefm"
	"github.com/nvr-ai/go-pose/models/posenet"
)

// NewModel creates a new pose model instance based on the specified model name.
//
// Arguments:
//   - args: The model name and an optional decode policy override.
//
// Returns:
//   - model.Model: A configured model implementing the Model interface.
//   - error: An error if the model name is unsupported.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{Name: model.ModelNamePEFM})
//	if err != nil {
//	    log.Fatalf("Failed to create pose model: %v", err)
//	}
//	keypoints := m.PostProcess(output)
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNamePEFM:
		m, err := pefm.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.ModelNamePoseNet:
		m, err := posenet.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %q", args.Name)
	}
}

// DefaultConfig returns the default configuration of a named model without instantiating it.
func DefaultConfig(name model.Name) (model.Config, error) {
	switch name {
	case model.ModelNamePEFM:
		return pefm.DefaultConfig(), nil
	case model.ModelNamePoseNet:
		return posenet.DefaultConfig(), nil
	default:
		return model.Config{}, fmt.Errorf("unsupported model name: %q", name)
	}
}
