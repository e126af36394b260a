package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Nyx-Off/RavenTrace/internal/model"
)

// SocialMediaProbe checks handle existence across major social platforms.
type SocialMediaProbe struct {
	client    *Client
	platforms []platform
}

// NewSocialMediaProbe creates the social media existence probe.
func NewSocialMediaProbe(client *Client) *SocialMediaProbe {
	return &SocialMediaProbe{
		client: client,
		platforms: []platform{
			{"twitter", "https://twitter.com/%s"},
			{"instagram", "https://www.instagram.com/%s"},
			{"tiktok", "https://www.tiktok.com/@%s"},
			{"youtube", "https://www.youtube.com/@%s"},
			{"reddit", "https://www.reddit.com/user/%s"},
			{"twitch", "https://www.twitch.tv/%s"},
			{"pinterest", "https://www.pinterest.com/%s"},
			{"tumblr", "https://%s.tumblr.com"},
		},
	}
}

// Name implements Probe.
func (p *SocialMediaProbe) Name() string { return "social_media" }

// Kind implements Probe.
func (p *SocialMediaProbe) Kind() model.QueryKind { return model.KindHandle }

// Shape implements Probe.
func (p *SocialMediaProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
func (p *SocialMediaProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	return checkPlatforms(ctx, p.client, p.platforms, q.Normalized)
}

// CodeRepoProbe checks code hosting platforms via their public user APIs.
// API lookups give reliable answers where profile-page HEAD checks are
// defeated by soft-404 pages.
type CodeRepoProbe struct {
	client    *Client
	githubAPI string
	gitlabAPI string
}

// NewCodeRepoProbe creates the code hosting probe.
func NewCodeRepoProbe(client *Client) *CodeRepoProbe {
	return &CodeRepoProbe{
		client:    client,
		githubAPI: "https://api.github.com",
		gitlabAPI: "https://gitlab.com/api/v4",
	}
}

// Name implements Probe.
func (p *CodeRepoProbe) Name() string { return "code_repos" }

// Kind implements Probe.
func (p *CodeRepoProbe) Kind() model.QueryKind { return model.KindHandle }

// Shape implements Probe.
func (p *CodeRepoProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
func (p *CodeRepoProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	var results []any

	var ghUser struct {
		Login       string `json:"login"`
		Name        string `json:"name"`
		HTMLURL     string `json:"html_url"`
		PublicRepos int    `json:"public_repos"`
		CreatedAt   string `json:"created_at"`
	}
	status, err := p.client.GetJSON(ctx, p.githubAPI+"/users/"+url.PathEscape(q.Normalized), nil, &ghUser)
	if err == nil && status == http.StatusOK {
		results = append(results, map[string]any{
			"platform":     "github",
			"username":     ghUser.Login,
			"name":         ghUser.Name,
			"url":          ghUser.HTMLURL,
			"public_repos": ghUser.PublicRepos,
			"created_at":   ghUser.CreatedAt,
			"found":        true,
		})
	}

	var glUsers []struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		WebURL   string `json:"web_url"`
	}
	status, err = p.client.GetJSON(ctx, p.gitlabAPI+"/users?username="+url.QueryEscape(q.Normalized), nil, &glUsers)
	if err == nil && status == http.StatusOK && len(glUsers) > 0 {
		results = append(results, map[string]any{
			"platform": "gitlab",
			"username": glUsers[0].Username,
			"name":     glUsers[0].Name,
			"url":      glUsers[0].WebURL,
			"found":    true,
		})
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

// ForumProbe checks forum and discussion platforms.
type ForumProbe struct {
	client    *Client
	hnAPI     string
	platforms []platform
}

// NewForumProbe creates the forum existence probe.
func NewForumProbe(client *Client) *ForumProbe {
	return &ForumProbe{
		client: client,
		hnAPI:  "https://hacker-news.firebaseio.com/v0",
		platforms: []platform{
			{"stackoverflow", "https://stackoverflow.com/users/filter?search=%s"},
			{"medium", "https://medium.com/@%s"},
			{"devto", "https://dev.to/%s"},
		},
	}
}

// Name implements Probe.
func (p *ForumProbe) Name() string { return "forums" }

// Kind implements Probe.
func (p *ForumProbe) Kind() model.QueryKind { return model.KindHandle }

// Shape implements Probe.
func (p *ForumProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
func (p *ForumProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	var results []any

	// Hacker News has a clean JSON API: null body means no such user.
	var hnUser struct {
		ID      string `json:"id"`
		Karma   int    `json:"karma"`
		Created int64  `json:"created"`
	}
	status, err := p.client.GetJSON(ctx, p.hnAPI+"/user/"+url.PathEscape(q.Normalized)+".json", nil, &hnUser)
	if err == nil && status == http.StatusOK && hnUser.ID != "" {
		results = append(results, map[string]any{
			"platform": "hackernews",
			"username": hnUser.ID,
			"karma":    hnUser.Karma,
			"found":    true,
		})
	}

	hits, err := checkPlatforms(ctx, p.client, p.platforms, q.Normalized)
	if err != nil {
		return nil, err
	}
	if hitList, ok := hits.([]any); ok {
		results = append(results, hitList...)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

// GamingProbe checks gaming and streaming platforms.
type GamingProbe struct {
	client      *Client
	lichessAPI  string
	platforms   []platform
}

// NewGamingProbe creates the gaming platform probe.
func NewGamingProbe(client *Client) *GamingProbe {
	return &GamingProbe{
		client:     client,
		lichessAPI: "https://lichess.org/api",
		platforms: []platform{
			{"steam", "https://steamcommunity.com/id/%s"},
			{"chesscom", "https://www.chess.com/member/%s"},
			{"speedrun", "https://www.speedrun.com/user/%s"},
		},
	}
}

// Name implements Probe.
func (p *GamingProbe) Name() string { return "gaming" }

// Kind implements Probe.
func (p *GamingProbe) Kind() model.QueryKind { return model.KindHandle }

// Shape implements Probe.
func (p *GamingProbe) Shape() Shape { return ShapeList }

// Probe implements Probe.
func (p *GamingProbe) Probe(ctx context.Context, q model.Query) (any, error) {
	var results []any

	var lichessUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	status, err := p.client.GetJSON(ctx, p.lichessAPI+"/user/"+url.PathEscape(q.Normalized), nil, &lichessUser)
	if err == nil && status == http.StatusOK && lichessUser.ID != "" {
		results = append(results, map[string]any{
			"platform": "lichess",
			"username": lichessUser.Username,
			"found":    true,
		})
	}

	hits, err := checkPlatforms(ctx, p.client, p.platforms, q.Normalized)
	if err != nil {
		return nil, err
	}
	if hitList, ok := hits.([]any); ok {
		results = append(results, hitList...)
	}

	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}
