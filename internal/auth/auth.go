package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/clubsite/club-api/internal/config"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"

	TokenDuration = 24 * time.Hour
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	session     *discordgo.Session
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, session *discordgo.Session) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:      db,
		cfg:     cfg,
		session: session,
	}
}

// AuthInput carries the caller's credentials into huma operations: the
// session cookie for browser clients, or an API key for board tooling.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie" required:"false"`
	APIKey string `header:"X-API-KEY" doc:"API key for board tooling" required:"false"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(context.Background(), token)

	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{DiscordID: discordUser.ID}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	user.Username = discordUser.Username
	user.Email = discordUser.Email
	user.Avatar = discordUser.Avatar
	user.IsBoard = h.isBoardMember(discordUser.ID)

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    jwtToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})

	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

// isBoardMember checks the member's roles in the club's Discord guild.
// Without a bot session or configured role the answer is always false; board
// status can still be granted manually in the database.
func (h *AuthHandler) isBoardMember(discordID string) bool {
	if h.session == nil || h.cfg.DiscordGuildID == "" || h.cfg.BoardRoleID == "" {
		return false
	}
	member, err := h.session.GuildMember(h.cfg.DiscordGuildID, discordID)
	if err != nil {
		return false
	}
	for _, role := range member.Roles {
		if role == h.cfg.BoardRoleID {
			return true
		}
	}
	return false
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// parseToken validates a signed session token and returns the user ID and
// expiry carried in its claims.
func (h *AuthHandler) parseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat == 0 {
		return 0, time.Time{}, fmt.Errorf("invalid token claims")
	}

	var expires time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expires = time.Unix(int64(exp), 0)
	}
	return uint(userIDFloat), expires, nil
}

// Authorize validates the caller's credentials and returns the authenticated
// user's ID. An API key takes precedence over the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, creds AuthInput) (uint, error) {
	if creds.APIKey != "" {
		var keyModel models.APIKey
		if err := h.db.Where("key = ?", creds.APIKey).First(&keyModel).Error; err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: invalid API key")
		}
		if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
			return 0, huma.Error401Unauthorized("Unauthorized: API key expired")
		}
		h.db.Model(&keyModel).Update("last_used_at", time.Now())
		return keyModel.UserID, nil
	}

	if creds.Cookie == "" {
		return 0, huma.Error401Unauthorized("Unauthorized: no token found")
	}

	// Reuse net/http's cookie parsing.
	req := http.Request{Header: http.Header{"Cookie": []string{creds.Cookie}}}
	cookie, err := req.Cookie("auth_token")
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: no token found")
	}

	userID, _, err := h.parseToken(cookie.Value)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: invalid token")
	}

	return userID, nil
}

// RequireBoard authorizes the request and additionally requires the user to
// be a board member. Every mutating carpool operation goes through here.
func (h *AuthHandler) RequireBoard(ctx context.Context, creds AuthInput) (models.User, error) {
	userID, err := h.Authorize(ctx, creds)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return models.User{}, huma.Error401Unauthorized("Unauthorized: unknown user")
	}
	if !user.IsBoard {
		return models.User{}, huma.Error403Forbidden("Access denied: board members only")
	}

	return user, nil
}

type MeResponse struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
		IsBoard  bool   `json:"is_board"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeResponse, error) {
	userID, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	res := &MeResponse{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.Avatar = user.Avatar
	res.Body.IsBoard = user.IsBoard
	return res, nil
}
