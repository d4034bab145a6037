package streamurl

import "testing"

func TestExtractYouTube(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string // expected VideoID, "" means nil identifier
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://youtube.com/watch?feature=share&v=Abc_123-xy", "Abc_123-xy"},
		{"short url", "https://youtu.be/abc123", "abc123"},
		{"embed url", "https://www.youtube.com/embed/xyz789", "xyz789"},
		{"legacy v url", "https://youtube.com/v/old456", "old456"},
		{"live url", "https://www.youtube.com/live/Li_veID01", "Li_veID01"},
		{"not a url", "not a url", ""},
		{"empty", "", ""},
		{"wrong platform shape", "https://twitch.tv/somechannel", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract("youtube", tt.url)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("Extract() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Extract() = nil, want VideoID %q", tt.want)
			}
			if got.VideoID != tt.want {
				t.Errorf("VideoID = %q, want %q", got.VideoID, tt.want)
			}
		})
	}
}

func TestExtractTwitch(t *testing.T) {
	got := Extract("twitch", "https://www.twitch.tv/SomeStreamer")
	if got == nil || got.ChannelName != "somestreamer" {
		t.Fatalf("Extract() = %+v, want ChannelName somestreamer", got)
	}
	if Extract("twitch", "https://www.twitch.tv/videos/123456") != nil {
		t.Error("reserved twitch path should not extract a channel")
	}
	if Extract("twitch", "https://example.com/somechannel") != nil {
		t.Error("non-twitch host should not match")
	}
}

func TestExtractMeetings(t *testing.T) {
	if got := Extract("zoom", "https://us02web.zoom.us/j/81234567890?pwd=x"); got == nil || got.MeetingID != "81234567890" {
		t.Fatalf("zoom Extract() = %+v, want MeetingID 81234567890", got)
	}
	if got := Extract("meet", "https://meet.google.com/abc-defg-hij"); got == nil || got.MeetingID != "abc-defg-hij" {
		t.Fatalf("meet Extract() = %+v, want MeetingID abc-defg-hij", got)
	}
	if Extract("zoom", "https://zoom.us/about") != nil {
		t.Error("zoom non-join url should not match")
	}
}

func TestExtractUnknownPlatform(t *testing.T) {
	if Extract("webex", "https://example.webex.com/meet/room") != nil {
		t.Error("unknown platform should extract nil")
	}
}
