package healthguard

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactUnavailable reports a classifier or scaler that could not be loaded.
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	// ErrUnmappedCategory reports a categorical label with no numeric code.
	ErrUnmappedCategory = errors.New("unmapped category")
	// ErrShapeMismatch reports a feature vector whose length disagrees with the artifacts.
	ErrShapeMismatch = errors.New("feature-shape mismatch")
	// ErrInvalidInput reports a missing or malformed form value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrKnowledgeBaseUnavailable reports a knowledge document that could not be parsed.
	ErrKnowledgeBaseUnavailable = errors.New("knowledge base unavailable")
)

// ArtifactError wraps the cause of a failed artifact load.
type ArtifactError struct {
	Name string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrArtifactUnavailable, e.Name, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

func (e *ArtifactError) Is(target error) bool { return target == ErrArtifactUnavailable }

// CategoryError names the feature and the label that has no encoding.
type CategoryError struct {
	Feature string
	Value   string
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%s: feature %q has no code for %q", ErrUnmappedCategory, e.Feature, e.Value)
}

func (e *CategoryError) Is(target error) bool { return target == ErrUnmappedCategory }

// ShapeError describes a vector length that does not match the expected feature count.
type ShapeError struct {
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %d features, got %d", ErrShapeMismatch, e.Want, e.Got)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShapeMismatch }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
