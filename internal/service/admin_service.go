package service

import (
	"context"
	"time"

	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/pkg/logger"
	"portfolio-chat-be/internal/repository/contract"
	"portfolio-chat-be/internal/repository/specification"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type IAdminService interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
	GetSessions(ctx context.Context) ([]*dto.AdminSessionResponse, error)
	GetLogs(ctx context.Context, req *dto.AdminLogsRequest) ([]logger.LogEntry, error)
}

type adminService struct {
	passwordHash string
	jwtSecret    string
	sessionRepo  contract.ChatSessionRepository // nil when chat log storage is off
	messageRepo  contract.ChatMessageRepository // nil when chat log storage is off
	log          logger.ILogger
}

func NewAdminService(
	passwordHash string,
	jwtSecret string,
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		log:          log,
	}
}

func (s *adminService) Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if s.passwordHash == "" {
		return nil, fiber.NewError(fiber.StatusForbidden, "admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		s.log.Warn("admin", "failed login attempt", nil)
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &dto.AdminLoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func (s *adminService) GetSessions(ctx context.Context) ([]*dto.AdminSessionResponse, error) {
	if s.sessionRepo == nil {
		return []*dto.AdminSessionResponse{}, nil
	}

	sessions, err := s.sessionRepo.FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.AdminSessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		count, err := s.messageRepo.Count(ctx, specification.ByChatSessionID{ChatSessionID: sess.Id})
		if err != nil {
			return nil, err
		}
		result = append(result, &dto.AdminSessionResponse{
			SessionId:    sess.SessionKey,
			Title:        sess.Title,
			MessageCount: count,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		})
	}
	return result, nil
}

func (s *adminService) GetLogs(ctx context.Context, req *dto.AdminLogsRequest) ([]logger.LogEntry, error) {
	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	return s.log.GetLogs(req.Level, limit, offset)
}
