package bot

import "fmt"

const (
	msgGreeting        = "Hi! Send me a YouTube channel link and I will export the comments from its latest five videos to a CSV file.\n\n/comments <link> - comments from the latest five videos\n/parse <link> - comments from recent videos until 5000 are collected"
	msgInvalidLink     = "Please send a valid YouTube channel link, e.g. https://www.youtube.com/@handle or https://www.youtube.com/channel/<id>."
	msgParseUsage      = "Please send the channel link together with the /parse command."
	msgStrictStarted   = "Loading comments from the latest five videos, please wait..."
	msgResilientStart  = "Loading comments from recent videos until 5000 comments are collected. Please wait..."
	msgQueued          = "Another export is running, yours will start shortly."
	msgNoVideos        = "Could not find any videos on the channel. Please check the link."
	msgNoComments      = "Could not find any comments on the videos."
	msgNoVideoComments = "Could not find any videos with comments."
	msgGenericError    = "An error occurred while processing the channel."
	msgExportFailed    = "An error occurred while saving the comments to a file."
)

func msgCommentsDisabled(videoID string) string {
	return fmt.Sprintf("Comments are disabled for video %s. Skipping.", videoID)
}

func msgVideoFailed(videoID string) string {
	return fmt.Sprintf("Error fetching comments for video %s.", videoID)
}

func msgFileMissing(name string) string {
	return fmt.Sprintf("Error: file %s not found.", name)
}

func msgSendFailed(name string) string {
	return fmt.Sprintf("Error sending file %s.", name)
}
