package service

import "errors"

// Operation errors surfaced to handlers. Repository-level
// gorm.ErrRecordNotFound is translated to ErrNotFound at the service boundary
// so handlers never see storage internals.
var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrNotAMember              = errors.New("not a member of this conversation")
	ErrNotGroupConversation    = errors.New("not a group conversation")
	ErrInvalidGroupComposition = errors.New("invalid group composition")
	ErrInvalidDirectPair       = errors.New("invalid direct conversation pair")
)
