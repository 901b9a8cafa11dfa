package services

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/requestdata"
	"github.com/planwatch/watch-backend/internal/watcherr"
)

// AuthService turns a bearer token into per-request identity data.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(ctx context.Context, userID uuid.UUID) (string, error)
}

type authService struct {
	userRepo  repos.UserRepo
	secretKey []byte
	log       *logger.Logger
}

func NewAuthService(userRepo repos.UserRepo, secretKey string, baseLog *logger.Logger) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{userRepo: userRepo, secretKey: []byte(secretKey), log: serviceLog}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, watcherr.PermissionDenied("unexpected signing method %v", t.Header["alg"])
		}
		return as.secretKey, nil
	})
	if err != nil || !token.Valid {
		return ctx, watcherr.PermissionDenied("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, watcherr.PermissionDenied("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ctx, watcherr.PermissionDenied("token has no subject")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, watcherr.PermissionDenied("token subject is not a user id")
	}

	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if watcherr.IsKind(err, watcherr.KindNotFound) {
			return ctx, watcherr.PermissionDenied("unknown user")
		}
		return ctx, err
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		IsSuperuser: user.IsSuperuser,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) IssueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := as.userRepo.GetByID(ctx, nil, userID); err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
	})
	signed, err := token.SignedString(as.secretKey)
	if err != nil {
		return "", watcherr.Internal(err, "sign token")
	}
	return signed, nil
}
