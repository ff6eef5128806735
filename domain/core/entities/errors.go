package entities

import "errors"

var (
	ErrGraphNotFound  = errors.New("graph not found")
	ErrTopicNotFound  = errors.New("topic not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrUploadNotFound = errors.New("upload not found")

	// ErrDuplicate is returned by stores when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate entity")

	ErrEmptyTopicName   = errors.New("topic name cannot be empty")
	ErrTopicNameTooLong = errors.New("topic name is too long")
	ErrEmptyGraphName   = errors.New("graph name cannot be empty")
	ErrMissingOwner     = errors.New("owner is required")
)
