package memory

import (
	"fmt"
	"time"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/domain/competition"
	"github.com/riskibarqy/creator-league/internal/domain/contest"
	"github.com/riskibarqy/creator-league/internal/domain/rating"
	"github.com/riskibarqy/creator-league/internal/domain/submission"
	"github.com/riskibarqy/creator-league/internal/domain/user"
	"github.com/riskibarqy/creator-league/internal/platform/password"
)

const (
	CompetitionIDNovember = "comp-nov"
	CompetitionIDDecember = "comp-dec"

	// SeedPassword is the bootstrap credential of every seeded account.
	SeedPassword = "123"

	seedAvatarBase = "https://api.dicebear.com/7.x/adventurer/svg"
	seedTikTokLink = "https://www.tiktok.com/@ta3.allam/video/7572668184931732738"
)

var seedEpoch = time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

// SeedSnapshot returns the demo league: one leader, four players, the November
// and December competitions, three November challenges and a few rated entries.
func SeedSnapshot(hasher password.Hasher) (contest.Snapshot, error) {
	hash, err := hasher.Hash(SeedPassword)
	if err != nil {
		return contest.Snapshot{}, fmt.Errorf("hash seed password: %w", err)
	}

	return contest.Snapshot{
		Users:        seedUsers(hash),
		Competitions: seedCompetitions(),
		Challenges:   seedChallenges(),
		Submissions:  seedSubmissions(),
		Ratings:      seedRatings(),
	}, nil
}

func seedUsers(hash string) []user.User {
	type row struct {
		id, name, bg string
		role         user.Role
		level, xp    int
	}
	rows := []row{
		{"3mmo", "3mmo", "b6e3f4", user.RoleLeader, 99, 99999},
		{"u1", "ShadowBlade", "c0aede", user.RolePlayer, 5, 1200},
		{"u2", "PixelQueen", "ffdfbf", user.RolePlayer, 7, 2400},
		{"u3", "GlitchMage", "ffd5dc", user.RolePlayer, 3, 450},
		{"u4", "NeonNinja", "d1d4f9", user.RolePlayer, 4, 890},
	}

	out := make([]user.User, 0, len(rows))
	for i, r := range rows {
		out = append(out, user.User{
			ID:           r.id,
			Username:     r.name,
			PasswordHash: hash,
			Avatar:       fmt.Sprintf("%s?seed=%s&backgroundColor=%s", seedAvatarBase, r.name, r.bg),
			Role:         r.role,
			Level:        r.level,
			XP:           r.xp,
			CreatedAt:    seedEpoch.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func seedCompetitions() []competition.Competition {
	return []competition.Competition{
		competition.Competition{
			ID:            CompetitionIDNovember,
			Title:         "November Neon Nights",
			Description:   "A month dedicated to high-contrast editing and cyberpunk aesthetics.",
			StartDate:     date(2023, time.November, 1),
			EndDate:       date(2023, time.November, 30),
			Status:        competition.StatusActive,
			Theme:         "from-pink-600 to-purple-600",
			Prize:         "$100 Steam Card + Golden Badge",
			BackgroundURL: "https://images.unsplash.com/photo-1542751371-adc38448a05e?auto=format&fit=crop&w=800&q=80",
			CreatedAt:     seedEpoch.Add(2 * time.Hour),
		}.Normalize(),
		competition.Competition{
			ID:            CompetitionIDDecember,
			Title:         "December Frost",
			Description:   "Winter themed storytelling and sound design.",
			StartDate:     date(2023, time.December, 1),
			EndDate:       date(2023, time.December, 31),
			Status:        competition.StatusUpcoming,
			Theme:         "from-cyan-600 to-blue-600",
			Prize:         "Rode Microphone",
			BackgroundURL: "https://images.unsplash.com/photo-1519669556878-63bd78aac24f?auto=format&fit=crop&w=800&q=80",
			CreatedAt:     seedEpoch.Add(time.Hour),
		}.Normalize(),
	}
}

func seedChallenges() []challenge.Challenge {
	return []challenge.Challenge{
		{
			ID:             "c1",
			CompetitionID:  CompetitionIDNovember,
			WeekNumber:     1,
			Title:          "The 10-Second Story",
			Description:    "Tell a complete story (beginning, middle, end) in exactly 10 seconds.",
			Criteria:       []string{"Clear Narrative", "Pacing", "Creativity"},
			Status:         challenge.StatusRating,
			Rules:          []string{"Must be exactly 10 seconds", "No copyrighted music", "Keep it PG"},
			MaxSubmissions: 1,
			BackgroundURL:  "https://images.unsplash.com/photo-1555680202-c86f0e12f086?auto=format&fit=crop&w=600&q=80",
			CreatedAt:      seedEpoch.Add(3 * time.Hour),
		},
		{
			ID:             "c2",
			CompetitionID:  CompetitionIDNovember,
			WeekNumber:     2,
			Title:          "Sound Design Master",
			Description:    "Create a video where the sound effects are the main character.",
			Criteria:       []string{"Audio Quality", "Sync", "Atmosphere"},
			Status:         challenge.StatusActive,
			Rules:          []string{"Original audio preferred", "Visuals can be simple"},
			MaxSubmissions: 3,
			BackgroundURL:  "https://images.unsplash.com/photo-1511671782779-c97d3d27a1d4?auto=format&fit=crop&w=600&q=80",
			CreatedAt:      seedEpoch.Add(4 * time.Hour),
		},
		{
			ID:             "c3",
			CompetitionID:  CompetitionIDNovember,
			WeekNumber:     3,
			Title:          "Color Grade Audit",
			Description:    "Take a dull clip and make it pop using only color grading.",
			Criteria:       []string{"Mood", "Consistency", "Technical Skill"},
			Status:         challenge.StatusLocked,
			Rules:          []string{"Before/After required"},
			MaxSubmissions: 1,
			BackgroundURL:  "https://images.unsplash.com/photo-1535498730771-e735b998cd64?auto=format&fit=crop&w=600&q=80",
			CreatedAt:      seedEpoch.Add(5 * time.Hour),
		},
	}
}

func seedSubmissions() []submission.Submission {
	return []submission.Submission{
		{
			ID:          "s1",
			ChallengeID: "c1",
			UserID:      "u1",
			Link:        seedTikTokLink,
			Note:        "Trying a horror vibe!",
			SubmittedAt: time.Date(2023, 11, 2, 10, 0, 0, 0, time.UTC),
			Platform:    submission.PlatformTikTok,
		},
		{
			ID:          "s2",
			ChallengeID: "c1",
			UserID:      "u2",
			Link:        seedTikTokLink,
			Note:        "My cat is the actor.",
			SubmittedAt: time.Date(2023, 11, 3, 14, 0, 0, 0, time.UTC),
			Platform:    submission.PlatformTikTok,
		},
	}
}

func seedRatings() []rating.Rating {
	at := time.Date(2023, 11, 4, 9, 0, 0, 0, time.UTC)
	return []rating.Rating{
		{ID: "r1", SubmissionID: "s1", RatedByUserID: "u2", Score: 4, CreatedAt: at, UpdatedAt: at},
		{ID: "r2", SubmissionID: "s1", RatedByUserID: "u3", Score: 5, CreatedAt: at, UpdatedAt: at},
		{ID: "r3", SubmissionID: "s2", RatedByUserID: "u1", Score: 5, CreatedAt: at, UpdatedAt: at},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
