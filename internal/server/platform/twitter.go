package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/tidwall/gjson"
)

const (
	twitterTweetsPerCheck  = 10
	twitterFollowingPage   = 1000
	twitterMaxFollowingReq = 15
)

// Twitter talks to the Twitter v2 API with an app bearer token.
type Twitter struct {
	api *apiClient
}

func NewTwitter(ctx context.Context, baseURL, bearerToken string, rps float64) *Twitter {
	return &Twitter{api: newAPIClient(ctx, "twitter", baseURL, staticToken(bearerToken), rps)}
}

func (t *Twitter) Lookup(ctx context.Context, username string) (*models.Profile, error) {
	res, err := t.api.getJSON(ctx, "/2/users/by/username/"+url.PathEscape(username),
		url.Values{"user.fields": {"profile_image_url"}})
	if err != nil {
		return nil, err
	}

	data := res.Get("data")
	if !data.Exists() || data.Get("id").String() == "" {
		return nil, fmt.Errorf("%w: twitter user %q not found", common.ErrPlatformVerificationFailed, username)
	}
	return &models.Profile{
		Name:              data.Get("name").String(),
		Username:          data.Get("username").String(),
		PlatformAccountID: data.Get("id").String(),
		ProfileImageURL:   data.Get("profile_image_url").String(),
	}, nil
}

func (t *Twitter) Verify(ctx context.Context, username, publicKey string) (*models.Profile, error) {
	profile, err := t.Lookup(ctx, username)
	if err != nil {
		return nil, err
	}

	res, err := t.api.getJSON(ctx, "/2/users/"+url.PathEscape(profile.PlatformAccountID)+"/tweets",
		url.Values{"max_results": {strconv.Itoa(twitterTweetsPerCheck)}})
	if err != nil {
		return nil, err
	}

	found := false
	res.Get("data.#.text").ForEach(func(_, text gjson.Result) bool {
		found = containsKey(text.String(), publicKey)
		return !found
	})
	if !found {
		return nil, fmt.Errorf("%w: no recent tweet of @%s carries the wallet key", common.ErrPlatformVerificationFailed, profile.Username)
	}
	return profile, nil
}

// FetchFollowing pages through the accounts accountID follows.
func (t *Twitter) FetchFollowing(ctx context.Context, accountID string) ([]string, error) {
	var (
		ids   []string
		token string
	)
	for i := 0; i < twitterMaxFollowingReq; i++ {
		q := url.Values{"max_results": {strconv.Itoa(twitterFollowingPage)}}
		if token != "" {
			q.Set("pagination_token", token)
		}
		res, err := t.api.getJSON(ctx, "/2/users/"+url.PathEscape(accountID)+"/following", q)
		if err != nil {
			return ids, err
		}
		for _, id := range res.Get("data.#.id").Array() {
			ids = append(ids, id.String())
		}
		token = res.Get("meta.next_token").String()
		if token == "" {
			break
		}
	}
	return ids, nil
}
