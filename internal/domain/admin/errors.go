package admin

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrCannotBanAdmin = errors.New("admins cannot be banned")
	ErrCannotBanSelf  = errors.New("you cannot ban yourself")
)
