package dicebear

import (
	"hash/fnv"
	"net/url"
	"strings"
)

const (
	defaultBaseURL = "https://api.dicebear.com/7.x"
	defaultStyle   = "adventurer"
)

var backgrounds = []string{"b6e3f4", "c0aede", "ffdfbf", "ffd5dc", "d1d4f9"}

var optionSeeds = []string{"Felix", "Aneka", "Zoe", "Jack", "Max", "Lily", "Oliver", "Sophia", "Leo", "Milo"}

// Provider builds DiceBear avatar URLs. The same seed always yields the same URL.
type Provider struct {
	baseURL string
	style   string
}

func NewProvider(baseURL, style string) *Provider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	style = strings.Trim(strings.TrimSpace(style), "/")
	if style == "" {
		style = defaultStyle
	}
	return &Provider{baseURL: baseURL, style: style}
}

func (p *Provider) AvatarURL(seed string) string {
	seed = strings.TrimSpace(seed)
	return p.build(seed, backgroundFor(seed))
}

// Options returns the fixed picker set, cycling through the background palette.
func (p *Provider) Options() []string {
	out := make([]string, 0, len(optionSeeds))
	for i, seed := range optionSeeds {
		out = append(out, p.build(seed, backgrounds[i%len(backgrounds)]))
	}
	return out
}

func (p *Provider) build(seed, background string) string {
	q := url.Values{}
	q.Set("seed", seed)
	q.Set("backgroundColor", background)
	return p.baseURL + "/" + p.style + "/svg?" + q.Encode()
}

func backgroundFor(seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return backgrounds[h.Sum32()%uint32(len(backgrounds))]
}
