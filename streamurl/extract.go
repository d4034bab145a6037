// Package streamurl maps a stream URL plus a platform tag to the structured
// identifier the platform probe needs. Extraction is pure string matching:
// malformed input yields a nil identifier, never an error. Each platform owns
// one canonical pattern set; the historical URL shapes per platform are
// disjoint, so first match wins.
package streamurl

import (
	"regexp"
	"strings"
)

// Identifier is the platform-specific handle extracted from a stream URL.
// Exactly one field is populated depending on the platform.
type Identifier struct {
	VideoID     string // youtube
	ChannelName string // twitch
	MeetingID   string // zoom, meet
}

// Hosts match case-insensitively; YouTube video ids keep their original case.
var (
	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i:youtube\.com/watch\?)(?:[^#\s]*&)?(?i:v=)([^&\n?#]+)`),
		regexp.MustCompile(`(?i:youtu\.be/)([^&\n?#/]+)`),
		regexp.MustCompile(`(?i:youtube\.com/embed/)([^&\n?#/]+)`),
		regexp.MustCompile(`(?i:youtube\.com/v/)([^&\n?#/]+)`),
		regexp.MustCompile(`(?i:youtube\.com/live/)([^&\n?#/]+)`),
	}
	twitchPattern = regexp.MustCompile(`(?i:twitch\.tv/)(\w+)`)
	zoomPattern   = regexp.MustCompile(`(?i:zoom\.us/j/)(\d+)`)
	meetPattern   = regexp.MustCompile(`(?i:meet\.google\.com/)([a-zA-Z]{3,4}-[a-zA-Z]{4}-[a-zA-Z]{3,4})`)
)

// Extract returns the identifier for the given platform, or nil when the URL
// does not match any known pattern for that platform.
func Extract(platform, rawURL string) *Identifier {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return nil
	}
	switch platform {
	case "youtube":
		for _, p := range youtubePatterns {
			if m := p.FindStringSubmatch(u); m != nil {
				return &Identifier{VideoID: m[1]}
			}
		}
	case "twitch":
		if m := twitchPattern.FindStringSubmatch(u); m != nil {
			login := strings.ToLower(m[1])
			// Reserved paths are not channel logins.
			switch login {
			case "videos", "directory", "settings":
				return nil
			}
			return &Identifier{ChannelName: login}
		}
	case "zoom":
		if m := zoomPattern.FindStringSubmatch(u); m != nil {
			return &Identifier{MeetingID: m[1]}
		}
	case "meet":
		if m := meetPattern.FindStringSubmatch(u); m != nil {
			return &Identifier{MeetingID: strings.ToLower(m[1])}
		}
	}
	return nil
}
