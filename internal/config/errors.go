package config

import "errors"

// Errors returned by Config.Validate.
var (
	// ErrInvalidSize is returned when the resize target is not positive.
	ErrInvalidSize = errors.New("invalid resize target: width and height must be positive")

	// ErrInvalidStart is returned when the resize counter starts below zero.
	ErrInvalidStart = errors.New("invalid resize start: must be non-negative")

	// ErrEmptyName is returned when a class or prefix used in output names is
	// empty or contains an underscore.
	ErrEmptyName = errors.New("invalid name: must be non-empty and free of underscores")

	// ErrInvalidConfidence is returned when the YOLO confidence is outside
	// [0, 1].
	ErrInvalidConfidence = errors.New("invalid confidence: must be between 0 and 1")

	// ErrInvalidSolver is returned when a Detectron2 solver value is not
	// positive.
	ErrInvalidSolver = errors.New("invalid detectron2 solver settings: values must be positive")

	// ErrInvalidScoreThreshold is returned when the Detectron2 test score
	// threshold is outside [0, 1].
	ErrInvalidScoreThreshold = errors.New("invalid score threshold: must be between 0 and 1")

	// ErrInvalidCategories is returned when the category list cannot form a
	// table.
	ErrInvalidCategories = errors.New("invalid categories")

	// ErrNoAddress is returned when the preview server has no listen address.
	ErrNoAddress = errors.New("preview address is empty")
)
