package submission

import (
	"testing"
	"time"
)

func TestDetectPlatform(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"https://www.youtube.com/watch?v=abc":      PlatformYouTube,
		"https://m.youtube.com/shorts/xyz":         PlatformYouTube,
		"https://tiktok.com/@shadowblade/video/1":  PlatformTikTok,
		"https://youtu.be/abc":                     PlatformTikTok,
		"https://www.instagram.com/reel/xyz":       PlatformTikTok,
		"https://vimeo.com/123":                    PlatformTikTok,
		"HTTPS://WWW.YOUTUBE.COM/shorts/uppercase": PlatformTikTok,
	}
	for link, want := range cases {
		if got := DetectPlatform(link); got != want {
			t.Fatalf("DetectPlatform(%q)=%s want %s", link, got, want)
		}
	}
}

func TestSubmission_Validate(t *testing.T) {
	t.Parallel()

	valid := Submission{
		ID:          "sub-1",
		ChallengeID: "c1",
		UserID:      "u1",
		Link:        "https://tiktok.com/@u1/video/1",
		SubmittedAt: time.Now(),
		Platform:    PlatformTikTok,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid submission: %v", err)
	}

	for name, mutate := range map[string]func(*Submission){
		"empty link":     func(s *Submission) { s.Link = "  " },
		"relative link":  func(s *Submission) { s.Link = "tiktok.com/foo" },
		"missing author": func(s *Submission) { s.UserID = "" },
		"bad platform":   func(s *Submission) { s.Platform = "myspace" },
	} {
		s := valid
		mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
