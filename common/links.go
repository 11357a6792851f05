// Package common provides helpers shared by the bot and the CLI.
package common

import (
	"fmt"
	"strings"

	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
)

const (
	channelPathMarker = "youtube.com/channel/"
	handlePathMarker  = "youtube.com/@"
)

// InvalidLinkError is returned for text that is not a recognizable channel link.
type InvalidLinkError struct {
	Input string
}

func (e *InvalidLinkError) Error() string {
	return fmt.Sprintf("not a YouTube channel link: %q", e.Input)
}

// ParseChannelRef extracts a channel reference from a link such as
// https://www.youtube.com/channel/UCxxxx/videos or https://youtube.com/@handle.
//
// For /channel/ links the id runs up to the next '/'. For handles the handle
// is what follows the last '@', without any trailing path or query.
func ParseChannelRef(text string) (youtube.ChannelRef, error) {
	text = strings.TrimSpace(text)

	switch {
	case strings.Contains(text, channelPathMarker):
		rest := text[strings.LastIndex(text, "channel/")+len("channel/"):]
		id, _, _ := strings.Cut(rest, "/")
		if i := strings.IndexAny(id, "?#"); i >= 0 {
			id = id[:i]
		}
		id = firstField(id)
		if id == "" {
			return youtube.ChannelRef{}, &InvalidLinkError{Input: text}
		}
		return youtube.ChannelRef{Value: id}, nil

	case strings.Contains(text, handlePathMarker):
		handle := text[strings.LastIndex(text, "@")+1:]
		if i := strings.IndexAny(handle, "/?#"); i >= 0 {
			handle = handle[:i]
		}
		handle = firstField(handle)
		if handle == "" {
			return youtube.ChannelRef{}, &InvalidLinkError{Input: text}
		}
		return youtube.ChannelRef{Value: handle, IsHandle: true}, nil
	}

	return youtube.ChannelRef{}, &InvalidLinkError{Input: text}
}

// firstField drops anything after the first whitespace, e.g. trailing words in a chat message.
func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
