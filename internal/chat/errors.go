// Package chat holds the domain errors shared by the chat core's stores,
// services and handlers.
package chat

import "errors"

var (
	// ErrNoMentorAvailable means no eligible mentor exists for the subject.
	// Surfaced to the user as "try again later"; never retried automatically.
	ErrNoMentorAvailable = errors.New("no mentor available for subject")

	// ErrNotParticipant is an authorization violation: the caller is not part
	// of the conversation. Always fatal to the call.
	ErrNotParticipant = errors.New("user is not a participant of this conversation")

	// ErrEmptyMessage means neither content nor attachments were provided.
	ErrEmptyMessage = errors.New("message must have content or attachments")

	// ErrNotFound is a hard error for single-entity lookups and a soft
	// "no chats yet" signal for listings.
	ErrNotFound = errors.New("not found")
)
