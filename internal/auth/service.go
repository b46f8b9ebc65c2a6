package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/workouttracker/internal/storage"
	"github.com/2beens/workouttracker/internal/telemetry/metrics"
	"github.com/2beens/workouttracker/internal/telemetry/tracing"
	"github.com/2beens/workouttracker/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "workout-tracker-session||"
	tokensSetKey     = "workout-tracker-sessions"
	tokenLength      = 35
)

var (
	ErrWrongPassword  = errors.New("wrong password")
	ErrNoPasswordHash = errors.New("no password hash configured")
	ErrNoSession      = errors.New("session not found")
	ErrEmptyPassword  = errors.New("password empty")
)

type passwordStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Service struct {
	redisClient    *redis.Client
	passwords      passwordStore
	initialHash    string
	ttl            time.Duration
	metricsManager *metrics.Manager
	// bcrypt cost for new password hashes, 0 uses pkg.DefaultPasswordHashCost
	HashCost int
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

// NewAuthService creates the session service. initialHash is used until a
// password change stores a new hash in the record store.
func NewAuthService(
	ttl time.Duration,
	redisClient *redis.Client,
	passwords passwordStore,
	initialHash string,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		passwords:      passwords,
		initialHash:    strings.TrimSpace(initialHash),
		metricsManager: metricsManager,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) countLogin(result string) {
	if as.metricsManager != nil {
		as.metricsManager.CounterLogins.WithLabelValues(result).Inc()
	}
}

// activeHash is the stored password hash, or the initial one when none was stored yet.
func (as *Service) activeHash(ctx context.Context) (string, error) {
	stored, err := as.passwords.Get(ctx, storage.KeyPasswordHash)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return "", fmt.Errorf("get password hash: %w", err)
	default:
		var hash string
		if jsonErr := json.Unmarshal([]byte(stored), &hash); jsonErr != nil {
			hash = stored
		}
		if hash = strings.TrimSpace(hash); hash != "" {
			return hash, nil
		}
	}

	if as.initialHash == "" {
		return "", ErrNoPasswordHash
	}
	return as.initialHash, nil
}

// checkPassword accepts bcrypt hashes and legacy hex SHA-256 digests.
func checkPassword(password, hash string) bool {
	if isSHA256Hex(hash) {
		sum := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(hash))) == 1
	}
	return pkg.CheckPasswordHash(password, hash)
}

func isSHA256Hex(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func (as *Service) VerifyPassword(ctx context.Context, password string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.verifyPassword")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := as.activeHash(ctx)
	if err != nil {
		return err
	}
	if !checkPassword(password, hash) {
		return ErrWrongPassword
	}
	return nil
}

// Login verifies the password and opens a new session, returning its token.
func (as *Service) Login(ctx context.Context, password string, createdAt time.Time) (string, error) {
	if err := as.VerifyPassword(ctx, password); err != nil {
		if errors.Is(err, ErrWrongPassword) || errors.Is(err, ErrEmptyPassword) {
			as.countLogin("wrong_password")
		} else {
			as.countLogin("error")
		}
		return "", err
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		as.countLogin("error")
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	cmdSet := as.redisClient.Set(ctx, sessionKey, createdAt.Unix(), as.ttl)
	if err := cmdSet.Err(); err != nil {
		as.countLogin("error")
		return "", err
	}

	// add token to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		as.countLogin("error")
		return "", err
	}

	as.countLogin("success")
	return token, nil
}

// Logout removes the session. Returns ErrNoSession for unknown or expired tokens.
func (as *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoSession
		}
		return err
	}

	if err := as.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return err
	}

	return nil
}

// ChangePassword verifies the current password and stores the bcrypt hash of the new one.
func (as *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "authService.changePassword")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if newPassword == "" {
		return ErrEmptyPassword
	}
	if err := as.VerifyPassword(ctx, currentPassword); err != nil {
		return err
	}

	hash, err := pkg.HashPasswordWithCost(newPassword, as.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hashJson, err := json.Marshal(hash)
	if err != nil {
		return err
	}
	if err := as.passwords.Set(ctx, storage.KeyPasswordHash, string(hashJson)); err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}

	log.Debugln("password changed")
	return nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) error {
	cmd := as.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("get sessions: %w", err)
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return nil
	}

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		cmd := as.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// session key already expired, only the set entry is left
				toRemove = append(toRemove, token)
				continue
			}
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(time.Unix(createdAtUnix, 0)) > as.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}

	log.Debugf("=> auth service, scan and clean done, removed %d sessions", len(toRemove))
	return nil
}
