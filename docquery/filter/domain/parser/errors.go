package parser

import "github.com/pkg/errors"

var (
	ErrInvalidQuery      = errors.New("invalid query")
	ErrInvalidExpression = errors.New("invalid filter expression")
)
