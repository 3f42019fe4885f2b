// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import "errors"

// Use errors.Is() to check for these.
var (
	// ErrNoSuchTopic is returned by Publish for a topic that CreatePublisher
	// never registered.
	ErrNoSuchTopic = errors.New("publish: no such topic")

	// ErrPublishFailed covers encoding and transport failures.
	ErrPublishFailed = errors.New("publish: publish failed")

	// ErrNotConnected is returned when the hub connection is down.
	ErrNotConnected = errors.New("publish: not connected")

	// ErrConnectionFailed is returned when the initial dial fails.
	ErrConnectionFailed = errors.New("publish: connection failed")

	// ErrInvalidTopic is returned for empty topics or topics with wildcards.
	ErrInvalidTopic = errors.New("publish: invalid topic")
)
