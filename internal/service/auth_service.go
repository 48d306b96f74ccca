package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/config"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStudentExists      = errors.New("student number already registered")
)

// TokenTypeStudent is the only token type the planner issues.
const TokenTypeStudent = "student"

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType     string `json:"token_type"`
	UserID        int    `json:"user_id"`
	StudentNumber string `json:"student_number"`
}

// StudentStore is the account storage the auth service needs.
type StudentStore interface {
	Create(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id int) (*model.Student, error)
	GetByStudentNumber(ctx context.Context, number string) (*model.Student, error)
}

// AuthService handles registration, login and JWT handling.
type AuthService struct {
	cfg      *config.Config
	students StudentStore
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, students StudentStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		students: students,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req model.StudentRegisterRequest) (*model.StudentLoginResponse, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		StudentNumber: req.StudentNumber,
		Name:          req.Name,
		PasswordHash:  hash,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateStudentNumber) {
			return nil, ErrStudentExists
		}
		return nil, fmt.Errorf("create student: %w", err)
	}

	token, err := s.GenerateToken(student)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("student_id", student.ID).Msg("Student registered")
	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req model.StudentLoginRequest) (*model.StudentLoginResponse, error) {
	student, err := s.students.GetByStudentNumber(ctx, req.StudentNumber)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}

	if err := s.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(student)
	if err != nil {
		return nil, err
	}
	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// Profile returns the account behind a token.
func (s *AuthService) Profile(ctx context.Context, studentID int) (*model.Student, error) {
	return s.students.GetByID(ctx, studentID)
}

// GenerateToken signs an HS256 JWT for a student.
func (s *AuthService) GenerateToken(student *model.Student) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(student.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:     TokenTypeStudent,
		UserID:        student.ID,
		StudentNumber: student.StudentNumber,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != TokenTypeStudent {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
