package sdktest

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("sdktest: hash password: %v", err))
	}
	return hash
}

// Token mints a valid credential for u, shaped like the backend's tokens:
// sub is the stringified user id.
func (s *Server) Token(u sdk.User) sdk.Credential {
	return s.Sign(jwt.MapClaims{
		"sub":  strconv.FormatInt(u.ID, 10),
		"role": string(u.Role),
		"exp":  time.Now().Add(TokenTTL).Unix(),
		"jti":  uuid.NewString(),
	})
}

// Sign signs arbitrary claims with the server key.
func (s *Server) Sign(claims jwt.MapClaims) sdk.Credential {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("sdktest: sign token: %v", err))
	}
	return sdk.Credential(signed)
}

// IsRevoked reports whether the credential was revoked by a logout.
func (s *Server) IsRevoked(token sdk.Credential) bool {
	claims, err := s.parse(string(token))
	if err != nil {
		return false
	}
	jti, _ := claims["jti"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok
}

func (s *Server) parse(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

var errNoBearer = errors.New("missing bearer token")

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errNoBearer
	}
	return token, nil
}

// authorize resolves the caller and checks its role. On failure the error
// response has been written and ok is false.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, roles ...sdk.Role) (caller sdk.User, jti string, ok bool) {
	raw, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return sdk.User{}, "", false
	}
	claims, err := s.parse(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return sdk.User{}, "", false
	}

	jti, _ = claims["jti"].(string)
	s.mu.Lock()
	_, revoked := s.revoked[jti]
	s.mu.Unlock()
	if jti == "" || revoked {
		writeError(w, http.StatusUnauthorized, "Token revoked or invalid")
		return sdk.User{}, "", false
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Malformed token: subject missing")
		return sdk.User{}, "", false
	}
	user, found := s.User(id)
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return sdk.User{}, "", false
	}
	if len(roles) > 0 && !slices.Contains(roles, user.Role) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("Access denied for role '%s'", user.Role))
		return sdk.User{}, "", false
	}
	return user, jti, true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req sdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	var found *account
	for _, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, req.Email) {
			copied := *acct
			found = &copied
			break
		}
	}
	returnUser := s.returnUser
	s.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.hash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp := sdk.LoginResponse{
		AccessToken: string(s.Token(found.user)),
		TokenType:   "bearer",
	}
	if returnUser {
		user := found.user
		resp.User = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	_, jti, ok := s.authorize(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	s.revoked[jti] = struct{}{}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
