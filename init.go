package relic

import (
	"github.com/relic-http/relic/body"
	"github.com/relic-http/relic/header"
)

func init() {
	header.SetErrorConstructor(func(name, reason string) error {
		return HeaderError(name, reason)
	})
	body.SetErrorConstructor(func(kind, reason string) error {
		switch kind {
		case "AlreadyConsumed":
			return NewError(KindAlreadyConsumed, reason)
		case "PayloadTooLarge":
			return NewError(KindPayloadTooLarge, reason)
		default:
			return NewError(KindUnexpected, reason)
		}
	})
}
