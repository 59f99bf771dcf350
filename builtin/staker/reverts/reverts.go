// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation. A revert never leaves partial state behind.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindBelowMinimum
	KindCapacityExceeded
	KindInsufficientHint
	KindNotYetMatured
	KindInvalidState
	KindConfigInvariantViolated
	KindInsufficientBalance
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindBelowMinimum:
		return "BelowMinimum"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindInsufficientHint:
		return "InsufficientHint"
	case KindNotYetMatured:
		return "NotYetMatured"
	case KindInvalidState:
		return "InvalidState"
	case KindConfigInvariantViolated:
		return "ConfigInvariantViolated"
	case KindInsufficientBalance:
		return "InsufficientBalance"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	_, ok := asRevert(err)
	return ok
}

// KindOf returns the kind of a revert error, wrapped or not.
func KindOf(err error) (Kind, bool) {
	e, ok := asRevert(err)
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func asRevert(err any) (*ErrRevert, bool) {
	if err == nil {
		return nil, false
	}
	e, ok := err.(error)
	if !ok {
		return nil, false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve, true
	}
	return nil, false
}

func NotFound(message string) *ErrRevert         { return New(KindNotFound, message) }
func AlreadyExists(message string) *ErrRevert    { return New(KindAlreadyExists, message) }
func BelowMinimum(message string) *ErrRevert     { return New(KindBelowMinimum, message) }
func CapacityExceeded(message string) *ErrRevert { return New(KindCapacityExceeded, message) }
func InsufficientHint(message string) *ErrRevert { return New(KindInsufficientHint, message) }
func NotYetMatured(message string) *ErrRevert    { return New(KindNotYetMatured, message) }
func InvalidState(message string) *ErrRevert     { return New(KindInvalidState, message) }
func ConfigInvariantViolated(message string) *ErrRevert {
	return New(KindConfigInvariantViolated, message)
}
func InsufficientBalance(message string) *ErrRevert { return New(KindInsufficientBalance, message) }
