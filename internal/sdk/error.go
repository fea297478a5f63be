// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package sdk

import "fmt"

// ErrorCode is the code of an SDK failure. It implements error so that a bare code can be used
// as a rejection value and matched with errors.Is.
type ErrorCode string

// ErrInvalidUserID is reported when the SDK does not know the requested user.
const ErrInvalidUserID ErrorCode = "GS402"

func (c ErrorCode) Error() string {
	return string(c)
}

// Error is the error payload of every SDK call.
type Error struct {
	Code        ErrorCode `json:"errorCode"`
	Message     string    `json:"errorMessage"`
	Description string    `json:"errorDescription,omitempty"`
}

func (e Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sdk error %s", e.Code)
	}
	return fmt.Sprintf("sdk error %s: %s", e.Code, e.Message)
}

// Unwrap exposes the error code, so errors.Is(err, ErrInvalidUserID) holds for the full
// payload as well.
func (e Error) Unwrap() error {
	if e.Code == "" {
		return nil
	}
	return e.Code
}
