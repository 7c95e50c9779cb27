package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const redditPostsPerCheck = 10

// Reddit uses an application-only OAuth token (client credentials grant).
type Reddit struct {
	api *apiClient
}

func NewReddit(ctx context.Context, baseURL, tokenURL, clientID, clientSecret string, rps float64) *Reddit {
	var ts oauth2.TokenSource
	if clientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		ts = cc.TokenSource(ctx)
	}
	return &Reddit{api: newAPIClient(ctx, "reddit", baseURL, ts, rps)}
}

func (r *Reddit) Lookup(ctx context.Context, username string) (*models.Profile, error) {
	profile, _, err := r.about(ctx, username)
	return profile, err
}

// Verify accepts the key either in the profile description or in one of the
// latest submitted posts.
func (r *Reddit) Verify(ctx context.Context, username, publicKey string) (*models.Profile, error) {
	profile, description, err := r.about(ctx, username)
	if err != nil {
		return nil, err
	}
	if containsKey(description, publicKey) {
		return profile, nil
	}

	posts, err := r.api.getJSON(ctx, "/user/"+url.PathEscape(username)+"/submitted",
		url.Values{"limit": {strconv.Itoa(redditPostsPerCheck)}, "raw_json": {"1"}})
	if err != nil {
		return nil, err
	}

	found := false
	posts.Get("data.children.#.data").ForEach(func(_, post gjson.Result) bool {
		found = containsKey(post.Get("title").String(), publicKey) || containsKey(post.Get("selftext").String(), publicKey)
		return !found
	})
	if !found {
		return nil, fmt.Errorf("%w: no recent post of u/%s carries the wallet key", common.ErrPlatformVerificationFailed, profile.Username)
	}
	return profile, nil
}

func (r *Reddit) about(ctx context.Context, username string) (*models.Profile, string, error) {
	res, err := r.api.getJSON(ctx, "/user/"+url.PathEscape(username)+"/about", url.Values{"raw_json": {"1"}})
	if err != nil {
		return nil, "", err
	}

	data := res.Get("data")
	if data.Get("id").String() == "" {
		return nil, "", fmt.Errorf("%w: reddit user %q not found", common.ErrPlatformVerificationFailed, username)
	}

	name := data.Get("subreddit.title").String()
	if name == "" {
		name = data.Get("name").String()
	}
	profile := &models.Profile{
		Name:              name,
		Username:          data.Get("name").String(),
		PlatformAccountID: data.Get("id").String(),
		ProfileImageURL:   cleanImageURL(data.Get("icon_img").String()),
	}
	return profile, data.Get("subreddit.public_description").String(), nil
}

// cleanImageURL drops the signed query Reddit appends to avatar URLs.
func cleanImageURL(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}
