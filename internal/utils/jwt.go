package utils

import (
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that is
// malformed, expired, signed with another key or missing claims.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "winery-visit-booking"

// Claims is the decoded payload of an access token.  SessionID is the
// token's jti and identifies one signed-in session; realtime connections
// opened with the token are closed when that session signs out.
type Claims struct {
    UserID    uint64
    Role      string
    SessionID string
    ExpiresAt time.Time
}

type accessClaims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// AccessToken is a signed HS256 JWT sent as a bearer token (or as the
// access_token query parameter of a WebSocket upgrade).
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is handed to the client once; only HashRefreshRaw(Raw)
// is stored.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// NewAccessToken signs a token for userID that expires after ttlMin
// minutes.  Every token gets a fresh jti.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := accessClaims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Issuer:    issuer,
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
            ID:        uuid.NewString(),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, fmt.Errorf("sign access token: %w", err)
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret.  Only HS256 is accepted so
// a token cannot pick its own algorithm.
func ParseAccessToken(secret, raw string) (Claims, error) {
    var ac accessClaims
    _, err := jwt.ParseWithClaims(raw, &ac, func(*jwt.Token) (any, error) {
        return []byte(secret), nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithIssuer(issuer),
        jwt.WithExpirationRequired(),
    )
    if err != nil {
        return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    uid, err := strconv.ParseUint(ac.Subject, 10, 64)
    if err != nil || uid == 0 {
        return Claims{}, ErrInvalidToken
    }
    return Claims{
        UserID:    uid,
        Role:      ac.Role,
        SessionID: ac.ID,
        ExpiresAt: ac.ExpiresAt.Time,
    }, nil
}

// NewRefreshToken returns 48 random bytes hex-encoded, valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    buf := make([]byte, 48)
    if _, err := rand.Read(buf); err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: hex.EncodeToString(buf),
        Exp: time.Now().UTC().AddDate(0, 0, ttlDays),
    }, nil
}

// HashRefreshRaw is the value stored in refresh_tokens.token_hash.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
