// Package googleauth implements the provider side of the sign-in round
// trip for Google: building the consent URL and exchanging the callback
// code for a verified identity.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/The-GenLab/Lectgen-AI-sub001/internal/server/services"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Exchanger satisfies httpapi.IdentityExchanger against Google's OAuth2
// endpoints.
type Exchanger struct {
	conf        *oauth2.Config
	userinfoURL string
}

type Option func(*Exchanger)

// WithEndpoints overrides the provider endpoints, used by tests to point
// the exchanger at a local stub.
func WithEndpoints(endpoint oauth2.Endpoint, userinfo string) Option {
	return func(e *Exchanger) {
		e.conf.Endpoint = endpoint
		e.userinfoURL = userinfo
	}
}

func NewExchanger(clientID, clientSecret, redirectURL string, opts ...Option) *Exchanger {
	e := &Exchanger{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userinfoURL: userinfoURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AuthURL returns the consent page URL carrying the anti-forgery state.
func (e *Exchanger) AuthURL(state string) string {
	return e.conf.AuthCodeURL(state)
}

// Exchange trades the callback code for an access token and fetches the
// profile it grants. Provider failures surface as common.ErrExternalService.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*services.ExternalIdentity, error) {
	token, err := e.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", common.ErrExternalService, err)
	}

	resp, err := e.conf.Client(ctx, token).Get(e.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", common.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", common.ErrExternalService, resp.StatusCode)
	}

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decoding userinfo: %v", common.ErrExternalService, err)
	}

	return &services.ExternalIdentity{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}
