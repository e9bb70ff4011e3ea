package submission

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformYouTube Platform = "youtube"
)

func (p Platform) Valid() bool {
	return p == PlatformTikTok || p == PlatformYouTube
}

// DetectPlatform is a case-sensitive substring check: links containing
// "youtube" are youtube, everything else is tiktok.
func DetectPlatform(link string) Platform {
	if strings.Contains(link, "youtube") {
		return PlatformYouTube
	}
	return PlatformTikTok
}

// Submission is a player's entry for one challenge. It is never edited.
type Submission struct {
	ID          string
	ChallengeID string
	UserID      string
	Link        string
	Note        string
	SubmittedAt time.Time
	Platform    Platform
}

func (s Submission) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("submission id is required")
	}
	if strings.TrimSpace(s.ChallengeID) == "" {
		return fmt.Errorf("submission challenge id is required")
	}
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("submission user id is required")
	}
	if err := ValidateLink(s.Link); err != nil {
		return err
	}
	if !s.Platform.Valid() {
		return fmt.Errorf("invalid platform %q", s.Platform)
	}
	if s.SubmittedAt.IsZero() {
		return fmt.Errorf("submitted at is required")
	}

	return nil
}

func ValidateLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("submission link is required")
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("submission link must be an absolute http(s) URL")
	}
	return nil
}
