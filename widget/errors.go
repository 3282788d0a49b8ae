package widget

import "errors"

var (
	ErrBusy               = errors.New("a message is already being sent")
	ErrStaleReply         = errors.New("reply belongs to a cleared conversation")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNotFound           = errors.New("not found")
	ErrAttachmentTooLarge = errors.New("attachment exceeds 16 MB")
	ErrAttachmentType     = errors.New("attachment type not supported")
	ErrUnknownLanguage    = errors.New("unknown language")
)
