package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
)

const facebookFields = "id,name,username,about,picture{url}"

// Facebook reads public page/profile fields from the Graph API.
type Facebook struct {
	api *apiClient
}

func NewFacebook(ctx context.Context, baseURL, accessToken string, rps float64) *Facebook {
	return &Facebook{api: newAPIClient(ctx, "facebook", baseURL, staticToken(accessToken), rps)}
}

func (f *Facebook) Lookup(ctx context.Context, username string) (*models.Profile, error) {
	profile, _, err := f.node(ctx, username)
	return profile, err
}

// Verify requires the key in the account's about text.
func (f *Facebook) Verify(ctx context.Context, username, publicKey string) (*models.Profile, error) {
	profile, about, err := f.node(ctx, username)
	if err != nil {
		return nil, err
	}
	if !containsKey(about, publicKey) {
		return nil, fmt.Errorf("%w: about section of %s does not carry the wallet key", common.ErrPlatformVerificationFailed, username)
	}
	return profile, nil
}

func (f *Facebook) node(ctx context.Context, username string) (*models.Profile, string, error) {
	res, err := f.api.getJSON(ctx, "/"+url.PathEscape(username), url.Values{"fields": {facebookFields}})
	if err != nil {
		return nil, "", err
	}
	if msg := res.Get("error.message").String(); msg != "" {
		return nil, "", fmt.Errorf("%w: facebook: %s", common.ErrPlatformVerificationFailed, msg)
	}
	if res.Get("id").String() == "" {
		return nil, "", fmt.Errorf("%w: facebook account %q not found", common.ErrPlatformVerificationFailed, username)
	}

	handle := res.Get("username").String()
	if handle == "" {
		handle = username
	}
	return &models.Profile{
		Name:              res.Get("name").String(),
		Username:          handle,
		PlatformAccountID: res.Get("id").String(),
		ProfileImageURL:   res.Get("picture.data.url").String(),
	}, res.Get("about").String(), nil
}
