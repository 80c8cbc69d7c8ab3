package remote

import (
	"context"
	"net/http"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserName string `json:"userName"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(ctx, "auth.login", http.MethodPost, "/Auth/login", "",
		loginRequest{Email: email, Password: password}, &pair)
	return pair, err
}

// Register creates an account and returns its first token pair.
func (c *Client) Register(ctx context.Context, email, password, userName string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(ctx, "auth.register", http.MethodPost, "/Auth/register", "",
		registerRequest{Email: email, Password: password, UserName: userName}, &pair)
	return pair, err
}

// Refresh trades the current pair for a new one.
func (c *Client) Refresh(ctx context.Context, current models.TokenPair) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(ctx, "auth.refresh", http.MethodPost, "/Auth/refresh", "", current, &pair)
	return pair, err
}

// CurrentUser returns the account the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "auth.currentUser", http.MethodGet, "/Auth/current-user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
