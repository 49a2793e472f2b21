package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/config"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/repository"
	"github.com/mgfere/kinoa-rolls/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Registrar(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	SolicitarReset(ctx context.Context, req dto.ResetPasswordRequest) error
	ConfirmarReset(ctx context.Context, req dto.ConfirmResetRequest) error
}

type authService struct {
	repo       repository.UsuarioRepository
	dispatcher *worker.Dispatcher
	cfg        *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, dispatcher *worker.Dispatcher, cfg *config.Config) AuthService {
	return &authService{repo: repo, dispatcher: dispatcher, cfg: cfg}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Registrar da de alta una cuenta de cliente con su perfil vacio. El rol
// cliente se crea si la tabla de catalogo aun no fue sembrada.
func (s *authService) Registrar(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error) {
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, apierror.Conflict("el nombre de usuario ya existe")
	}

	rol, err := s.repo.EnsureRol(ctx, model.RolCliente)
	if err != nil {
		return nil, apierror.Storage("no se pudo resolver el rol de cliente")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}

	user := &model.Usuario{
		Username:     req.Username,
		PasswordHash: string(hash),
		Telefono:     req.Telefono,
		Activo:       true,
		RolID:        rol.ID,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, user); err != nil {
			return err
		}
		perfil := &model.PerfilUsuario{UsuarioID: user.ID}
		return s.repo.CreatePerfil(ctx, tx, perfil)
	})
	if txErr != nil {
		return nil, apierror.Storage("no se pudo registrar la cuenta")
	}

	user.Rol = rol
	return s.buildLoginResponse(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apierror.Invalid("credenciales invalidas")
	}
	if !user.Activo {
		return nil, apierror.Forbidden("cuenta desactivada")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Invalid("credenciales invalidas")
	}
	return s.buildLoginResponse(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, apierror.Invalid("refresh token invalido o expirado")
	}
	uid, err := claimUserID(claims)
	if err != nil {
		return nil, apierror.Invalid("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, apierror.Invalid("usuario no encontrado o inactivo")
	}
	return s.buildLoginResponse(user)
}

// SolicitarReset manda por correo un enlace con un token firmado de un solo
// proposito. Siempre responde igual aunque el correo no exista, para no
// revelar que cuentas estan registradas.
func (s *authService) SolicitarReset(ctx context.Context, req dto.ResetPasswordRequest) error {
	perfil, err := s.repo.FindPerfilPorEmail(ctx, req.Email)
	if err != nil {
		log.Debug().Str("email", req.Email).Msg("solicitud de reset para correo no registrado")
		return nil
	}

	token, err := s.signToken(jwt.MapClaims{
		"user_id": perfil.UsuarioID.String(),
		"purpose": "password_reset",
		"exp":     time.Now().Add(30 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	payload := worker.EmailJobPayload{
		ToEmail: req.Email,
		Subject: "Kinoa Rolls — restablece tu contraseña",
		Body: fmt.Sprintf(
			"Recibimos una solicitud para restablecer tu contraseña.\n\n"+
				"Entra a %s/reset-password?token=%s\n\n"+
				"El enlace vence en 30 minutos. Si no fuiste tu, ignora este correo.",
			s.cfg.Domain, token),
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Msg("no se pudo encolar el correo de reset")
		}
	}
	return nil
}

func (s *authService) ConfirmarReset(ctx context.Context, req dto.ConfirmResetRequest) error {
	claims, err := s.parseToken(req.Token)
	if err != nil {
		return apierror.Invalid("token invalido o expirado")
	}
	if purpose, _ := claims["purpose"].(string); purpose != "password_reset" {
		return apierror.Invalid("token invalido o expirado")
	}
	uid, err := claimUserID(claims)
	if err != nil {
		return apierror.Invalid("token mal formado")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, uid, string(hash)); err != nil {
		return apierror.Storage("no se pudo actualizar la contraseña")
	}
	return nil
}

func (s *authService) buildLoginResponse(user *model.Usuario) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	rol := model.RolCliente
	if user.Rol != nil {
		rol = user.Rol.Nombre
	}
	return s.signToken(jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      rol,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	})
}

func (s *authService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parseToken(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("token invalido")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims invalidos")
	}
	return claims, nil
}

func claimUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("token mal formado")
	}
	return uuid.Parse(raw)
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	rol := ""
	if u.Rol != nil {
		rol = u.Rol.Nombre
	}
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Telefono: u.Telefono,
		Rol:      rol,
		Activo:   u.Activo,
	}
}
