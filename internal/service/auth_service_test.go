package service

import (
	"context"
	"testing"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/config"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "secreto-de-prueba",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func TestRegistrarYLogin(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	resp, err := svc.Registrar(context.Background(), dto.RegisterRequest{
		Username: "maria",
		Password: "secreta1",
		Telefono: "5512345678",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RolCliente, resp.User.Rol)

	// El registro crea el perfil vacio en la misma transaccion
	user, err := repo.FindByUsername(context.Background(), "maria")
	require.NoError(t, err)
	_, err = repo.FindPerfil(context.Background(), user.ID)
	assert.NoError(t, err)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "secreta1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", login.TokenType)
}

func TestRegistrarUsernameDuplicado(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	req := dto.RegisterRequest{Username: "maria", Password: "secreta1", Telefono: "5512345678"}
	_, err := svc.Registrar(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Registrar(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
}

func TestLoginCredencialesInvalidas(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	_, err := svc.Registrar(context.Background(), dto.RegisterRequest{
		Username: "maria", Password: "secreta1", Telefono: "5512345678",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "otra"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "noexiste", Password: "x"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

func TestLoginCuentaDesactivada(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	_, err := svc.Registrar(context.Background(), dto.RegisterRequest{
		Username: "maria", Password: "secreta1", Telefono: "5512345678",
	})
	require.NoError(t, err)

	user, _ := repo.FindByUsername(context.Background(), "maria")
	require.NoError(t, repo.SetActivo(context.Background(), user.ID, false))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "secreta1"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))
}

func TestRefreshEmiteNuevosTokens(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	resp, err := svc.Registrar(context.Background(), dto.RegisterRequest{
		Username: "maria", Password: "secreta1", Telefono: "5512345678",
	})
	require.NoError(t, err)

	renovado, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, renovado.AccessToken)
	assert.Equal(t, resp.User.ID, renovado.User.ID)
}

func TestRefreshTokenBasura(t *testing.T) {
	svc := NewAuthService(newStubUsuarioRepo(), nil, testConfig())
	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

func TestResetNoRevelaCorreos(t *testing.T) {
	svc := NewAuthService(newStubUsuarioRepo(), nil, testConfig())
	// Correo inexistente: misma respuesta silenciosa
	err := svc.SolicitarReset(context.Background(), dto.ResetPasswordRequest{Email: "nadie@example.com"})
	assert.NoError(t, err)
}

func TestConfirmarResetRechazaAccessToken(t *testing.T) {
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, nil, testConfig())

	resp, err := svc.Registrar(context.Background(), dto.RegisterRequest{
		Username: "maria", Password: "secreta1", Telefono: "5512345678",
	})
	require.NoError(t, err)

	// Un access token normal no sirve como token de reset
	err = svc.ConfirmarReset(context.Background(), dto.ConfirmResetRequest{
		Token:    resp.AccessToken,
		Password: "nueva123",
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}
