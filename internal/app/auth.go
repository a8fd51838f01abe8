// internal/app/auth.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	RoleAdmin   = "admin"
	RoleJudge   = "judge"
	RoleJury    = "jury"
	RoleTeam    = "team"
	RoleVisitor = "visitor"
)

// Session is what the external authentication collaborator yields: a role
// and, for team accounts, the team id. Credential issuance itself lives
// outside this system; sessions are provisioned into Redis externally.
type Session struct {
	Role   string `json:"role"`
	TeamID string `json:"team_id,omitempty"`
}

// CanJudge reports whether the session may finalize draws or edit scores.
func (s *Session) CanJudge() bool {
	return s.Role == RoleAdmin || s.Role == RoleJudge || s.Role == RoleJury
}

type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: config.Auth.SessionKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *Auth) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// SessionFromRequest resolves the bearer token to a session. With auth
// disabled every caller is an admin, which is only acceptable for local
// development setups.
func (a *Auth) SessionFromRequest(r *http.Request) (*Session, error) {
	if !a.enabled {
		return &Session{Role: RoleAdmin}, nil
	}

	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return a.SessionForToken(r.Context(), token)
}

func (a *Auth) SessionForToken(ctx context.Context, token string) (*Session, error) {
	key := strings.NewReplacer("{token}", token).Replace(a.keyTemplate)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err == redis.Nil || len(fields) == 0 {
		logger.Debug.Printf("Session not found for key: %s", key)
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return nil, fmt.Errorf("redis error: %w", err)
	}

	role := fields["role"]
	if role == "" {
		role = RoleVisitor
	}

	return &Session{
		Role:   role,
		TeamID: fields["team_id"],
	}, nil
}
