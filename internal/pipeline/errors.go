package pipeline

import "errors"

var (
	// ErrMissingComponent is returned by Build when a required stage is unset.
	ErrMissingComponent = errors.New("missing pipeline component")

	// ErrNoPublish marks a run that produced no article record.
	ErrNoPublish = errors.New("run produced no article")
)
