package services

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrParentNotFound = errors.New("parent comment not found")
	ErrEmptyComment   = errors.New("comment is empty")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicate      = errors.New("already exists")
)
