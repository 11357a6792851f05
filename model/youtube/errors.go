package youtube

import (
	"errors"
	"fmt"
)

// CommentsDisabledError is returned when the owner of a video turned comments off.
// Callers running in resilient mode treat it as an expected skip.
type CommentsDisabledError struct {
	VideoID string
}

func (e *CommentsDisabledError) Error() string {
	return fmt.Sprintf("comments are disabled for video %s", e.VideoID)
}

// FetchError wraps any other failure talking to the YouTube API.
type FetchError struct {
	Op  string // API call, e.g. "commentThreads.list"
	ID  string // channel or video id the call was about
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NoVideosFoundError means the channel listing came back empty.
type NoVideosFoundError struct {
	Channel ChannelRef
}

func (e *NoVideosFoundError) Error() string {
	return fmt.Sprintf("no videos found for channel %s", e.Channel)
}

// NoCommentsCollectedError means every video was processed and nothing was collected.
type NoCommentsCollectedError struct {
	Channel ChannelRef
}

func (e *NoCommentsCollectedError) Error() string {
	return fmt.Sprintf("no comments collected for channel %s", e.Channel)
}

// IsCommentsDisabled reports whether err is, or wraps, a CommentsDisabledError.
func IsCommentsDisabled(err error) bool {
	var disabled *CommentsDisabledError
	return errors.As(err, &disabled)
}
