package milestones

import "errors"

var (
	errNilState = errors.New("milestones: state not configured")

	ErrInvalidStage         = errors.New("milestones: invalid stage")
	ErrUnknownActivity      = errors.New("milestones: unknown activity kind")
	ErrUnauthorizedReporter = errors.New("milestones: reporter not authorized")
)
