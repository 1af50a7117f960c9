package service

import "errors"

var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrEngineStalled      = errors.New("metric engine stalled")
	ErrSubscriberOverrun  = errors.New("subscriber fell behind and was dropped")
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrEmptyInput         = errors.New("input contains no usable tokens")
)
