package domain

import "errors"

var (
	ErrSignalNotFound = errors.New("signal not found")
	ErrTradeNotFound  = errors.New("trade not found")
	ErrMarketNotFound = errors.New("market not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotSignalOwner = errors.New("signal does not belong to trader")
	ErrNotTradeOwner  = errors.New("trade does not belong to trader")
)
