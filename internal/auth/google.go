package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/storage"
)

const stateCookie = "contravault_oauth_state"

var ErrOAuthState = errors.New("auth: oauth state mismatch")

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Google signs users in with Google and issues a session token.
type Google struct {
	oauth    *oauth2.Config
	users    storage.UserStore
	issuer   *Issuer
	resolver *Resolver
	// apiEndpoint overrides the userinfo base URL.
	apiEndpoint string
	now         func() time.Time
}

func NewGoogle(cfg GoogleConfig, users storage.UserStore, resolver *Resolver) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("auth: google client id and secret are required")
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
		},
		users:    users,
		issuer:   resolver.issuer,
		resolver: resolver,
		now:      time.Now,
	}, nil
}

func (g *Google) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the signed-in user, creating the
// user on first sign-in, and returns a session token for them.
func (g *Google) Exchange(ctx context.Context, code string) (model.User, string, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return model.User{}, "", fmt.Errorf("auth: exchange code: %w", err)
	}
	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(ctx, tok))}
	if g.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.apiEndpoint))
	}
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return model.User{}, "", fmt.Errorf("auth: userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return model.User{}, "", fmt.Errorf("auth: userinfo: %w", err)
	}
	if strings.TrimSpace(info.Email) == "" {
		return model.User{}, "", errors.New("auth: google account has no email")
	}

	stored, err := g.users.UpsertUser(ctx, storage.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(info.Email),
		Name:      info.Name,
		Image:     info.Picture,
		CreatedAt: g.now().UTC(),
	})
	if err != nil {
		return model.User{}, "", fmt.Errorf("auth: save user: %w", err)
	}
	user := model.User{
		ID:        stored.ID,
		Email:     stored.Email,
		Name:      stored.Name,
		Image:     stored.Image,
		Theme:     stored.Theme,
		CreatedAt: stored.CreatedAt,
	}
	token, _, err := g.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return model.User{}, "", err
	}
	return user, token, nil
}

func (g *Google) Login(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, g.AuthURL(state))
}

func (g *Google) Callback(c *gin.Context) {
	want, err := c.Cookie(stateCookie)
	got := c.Query("state")
	if err != nil || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": ErrOAuthState.Error()})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "authorization code missing"})
		return
	}
	user, token, err := g.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("google sign-in failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "sign-in failed"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.resolver.CookieName(), token, int(g.issuer.ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"token": token, "user": user}})
}
