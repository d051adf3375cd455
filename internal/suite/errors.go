package suite

import "errors"

var (
	ErrSuiteNotFound  = errors.New("suite not found")
	ErrBlockNotFound  = errors.New("block not found")
	ErrParentNotFound = errors.New("parent block not found")
	ErrCycle          = errors.New("block cannot become its own ancestor")
	ErrDuplicateID    = errors.New("duplicate block id")
	ErrRubricNotFound = errors.New("rubric item not found")
	ErrRubricInUse    = errors.New("rubric item already linked")
	ErrNotFunction    = errors.New("rubric links require a function block")
)
