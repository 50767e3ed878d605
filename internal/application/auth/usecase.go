package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AdminSeed datos del administrador sembrado al arrancar.
type AdminSeed struct {
	Username       string
	Email          string
	Password       string
	UpdatePassword bool
}

// SeedResult qué hizo EnsureAdmin.
type SeedResult string

const (
	SeedSkipped  SeedResult = "skipped"
	SeedCreated  SeedResult = "created"
	SeedPromoted SeedResult = "promoted"
	SeedUpdated  SeedResult = "password_updated"
	SeedExisting SeedResult = "existing"
)

var weakPasswords = map[string]struct{}{
	"change_me": {}, "change-me": {}, "admin_password": {}, "password": {}, "123456": {}, "admin": {},
}

// AuthUseCase casos de uso de autenticación: login y siembra del administrador.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	audit    audit.Recorder
	log      zerolog.Logger
	clock    ledger.Clock
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, rec audit.Recorder, log zerolog.Logger, clock ledger.Clock) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, audit: rec, log: log, clock: clock}
}

// Login verifica username/password, genera JWT y registra el acceso.
// Usuario desconocido y contraseña errónea devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.Invalid("username", "requerido")
	}
	if in.Password == "" {
		return nil, domain.Invalid("password", "requerido")
	}
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "" && user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Identity{
		UserID: user.ID, Username: user.Username, Role: user.Role,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}

	actx := audit.WithActor(ctx, audit.Actor{UserID: user.ID, Username: user.Username, Admin: user.IsAdmin()})
	uc.audit.Record(actx, audit.Entry{
		Action: entity.AuditLogin, Entity: "auth",
		ObjectID: user.ID, ObjectRepr: user.Username, Message: "Conexión",
		Metadata: map[string]any{"username": user.Username},
	})
	return &dto.LoginResponse{Token: token, User: *ToUserResponse(user)}, nil
}

// EnsureAdmin crea o promueve al administrador; idempotente. Sin usuario o contraseña no hace nada.
// La contraseña de un administrador existente solo cambia con UpdatePassword.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, seed AdminSeed) (SeedResult, error) {
	username := strings.TrimSpace(seed.Username)
	if username == "" || seed.Password == "" {
		uc.log.Warn().Msg("ADMIN_USERNAME / ADMIN_PASSWORD sin definir; no se siembra administrador")
		return SeedSkipped, nil
	}
	if _, weak := weakPasswords[strings.ToLower(strings.TrimSpace(seed.Password))]; weak {
		uc.log.Warn().Str("username", username).
			Msg("ADMIN_PASSWORD parece débil o de ejemplo; cámbiala antes de desplegar en producción")
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	now := uc.clock.Now()
	if user == nil {
		hash, err := hashPassword(seed.Password)
		if err != nil {
			return "", err
		}
		user = &entity.User{
			ID:           entity.NewID(),
			Username:     username,
			Email:        strings.TrimSpace(seed.Email),
			PasswordHash: hash,
			Role:         entity.RoleAdmin,
			Status:       "active",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return "", err
		}
		uc.log.Info().Str("username", username).Msg("administrador creado")
		return SeedCreated, nil
	}

	result := SeedExisting
	changed := false
	if !user.IsAdmin() {
		user.Role = entity.RoleAdmin
		changed = true
		result = SeedPromoted
	}
	if seed.UpdatePassword && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(seed.Password)) != nil {
		hash, err := hashPassword(seed.Password)
		if err != nil {
			return "", err
		}
		user.PasswordHash = hash
		changed = true
		result = SeedUpdated
	}
	if !changed {
		return result, nil
	}
	user.UpdatedAt = now
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	uc.log.Info().Str("username", username).Str("result", string(result)).Msg("administrador actualizado")
	return result, nil
}

func hashPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ToUserResponse datos públicos del usuario.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		IsAdmin:     u.IsAdmin(),
	}
}
