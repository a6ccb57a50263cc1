package services

import (
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dffdp/wallet-backend/internal/audit"
	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/money"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

// AuthService owns registration, login and logout. Credentials are hashed
// here and stored opaquely on the account row; the ledger core never
// inspects them.
type AuthService struct {
	ledger    *LedgerService
	sessions  *SessionStore
	audit     *audit.Logger
	validator *validator.Validate
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // Account email, used as wallet id
	Password string `json:"password" validate:"required,min=6" example:"password123"`   // Account password
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // Account email
	Password string `json:"password" validate:"required" example:"password123"`         // Account password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token   string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	Account AccountView  `json:"account"`                                                 // Account information
}

// AccountView is the caller-facing shape of an account. Balance is a decimal
// string; the password hash never leaves the server.
type AccountView struct {
	ID      string      `json:"id" example:"user@example.com"`
	Balance string      `json:"balance" example:"1000.00"`
	Flagged bool        `json:"flagged" example:"false"`
	Role    models.Role `json:"role" example:"user"`
}

func NewAccountView(account *models.Account) AccountView {
	return AccountView{
		ID:      account.ID,
		Balance: money.Format(account.Balance),
		Flagged: account.Flagged,
		Role:    account.Role,
	}
}

func NewAuthService(ledger *LedgerService, sessions *SessionStore, auditLog *audit.Logger) *AuthService {
	return &AuthService{
		ledger:    ledger,
		sessions:  sessions,
		audit:     auditLog,
		validator: validator.New(),
	}
}

// Register handles account registration
// @Summary Register a new wallet account
// @Description Creates an account keyed by the normalized email and credits the starting balance
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Account already exists"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed: %v", err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	account, err := s.ledger.Register(r.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			SendErrorResponse(w, "Account already exists", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] Registration failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	s.audit.Record(r.Context(), account.ID, audit.ActionRegister,
		fmt.Sprintf("Registered with starting balance %s", money.Format(account.Balance)))

	token, err := s.issueToken(r, account)
	if err != nil {
		log.Printf("[AUTH] Token issue failed for %s: %v", account.ID, err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Registered account: %s", account.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{Token: token, Account: NewAccountView(account)})
}

// Login handles account login
// @Summary Log in to a wallet account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	account, err := s.ledger.GetAccount(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[AUTH] Login lookup failed for %s: %v", req.Email, err)
		}
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, account.PasswordHash) {
		log.Printf("[AUTH] Invalid password for %s", account.ID)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.issueToken(r, account)
	if err != nil {
		log.Printf("[AUTH] Token issue failed for %s: %v", account.ID, err)
		SendErrorResponse(w, "Login failed", http.StatusInternalServerError, nil)
		return
	}

	s.audit.Record(r.Context(), account.ID, audit.ActionLogin, "")

	log.Printf("[AUTH] Login successful: %s", account.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token, Account: NewAccountView(account)})
}

// Logout revokes the presented session token
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := s.sessions.Revoke(r.Context(), token); err != nil {
			log.Printf("[AUTH] Session revocation failed: %v", err)
		}
	}

	accountID, _ := r.Context().Value("accountID").(string)
	if accountID == "" {
		accountID = "unknown"
	}
	s.audit.Record(r.Context(), accountID, audit.ActionLogout, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
}

func (s *AuthService) issueToken(r *http.Request, account *models.Account) (string, error) {
	token, err := generateJWT(account.ID, account.Role)
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(r.Context(), token, account.ID); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		log.Printf("[AUTH] Invalid request body: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func generateJWT(accountID string, role models.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": accountID,
		"role":       string(role),
		"exp":        time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
