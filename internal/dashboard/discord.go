package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

// PermissionManageGuild is the MANAGE_GUILD bit of a guild permission set.
const PermissionManageGuild int64 = 0x20

var ErrUnauthorized = errors.New("discord rejected the access token")

// UserGuild is one entry of /users/@me/guilds.
type UserGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

func (g UserGuild) CanManage() bool {
	if g.Owner {
		return true
	}
	perms, err := strconv.ParseInt(g.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return perms&PermissionManageGuild != 0
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// discordClient talks to the Discord REST API on behalf of a dashboard user.
// Guild lists are cached per token since every guild route needs them.
type discordClient struct {
	oauth   *oauth2.Config
	apiBase string
	cache   *cache.Cache
}

func newDiscordClient(oauth *oauth2.Config, apiBase string, ttl time.Duration) *discordClient {
	return &discordClient{
		oauth:   oauth,
		apiBase: strings.TrimRight(apiBase, "/"),
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (c *discordClient) get(ctx context.Context, token, path string, out interface{}) error {
	client := c.oauth.Client(ctx, &oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("discord %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *discordClient) User(ctx context.Context, token string) (User, error) {
	var user User
	err := c.get(ctx, token, "/users/@me", &user)
	return user, err
}

func (c *discordClient) Guilds(ctx context.Context, token string) ([]UserGuild, error) {
	if cached, ok := c.cache.Get(token); ok {
		return cached.([]UserGuild), nil
	}
	var guilds []UserGuild
	if err := c.get(ctx, token, "/users/@me/guilds", &guilds); err != nil {
		return nil, err
	}
	c.cache.SetDefault(token, guilds)
	return guilds, nil
}

func (c *discordClient) Forget(token string) {
	c.cache.Delete(token)
}
