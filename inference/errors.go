package inference

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
)

var (
	// ErrInvalidImage is returned when the input frame is nil, undecodable or has no pixels.
	ErrInvalidImage = preprocess.ErrInvalidImage
	// ErrInvalidResults is returned when the engine output has the wrong rank, batch or size.
	ErrInvalidResults = errors.New("invalid inference results")
)
