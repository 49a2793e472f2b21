package worker

// email_worker.go
// Procesa tareas de correo de QueueEmail: confirmaciones de pedido con el
// ticket PDF adjunto y correos de restablecimiento de contraseña. Los envios
// pasan por el circuit breaker del relay SMTP; tras agotar los reintentos la
// tarea se mueve a la DLQ.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxEnviosCorreo = 3

// EmailJobPayload es el sobre de las tareas de QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path,omitempty"`
}

// EmailWorker envia correos por SMTP protegido por el circuit breaker.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process envia un correo, con adjunto si la tarea trae ruta de PDF.
func (w *EmailWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: payload invalido")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: to_email vacio, se omite")
		return
	}

	err := withRetry(ctx, maxEnviosCorreo, func(attempt int) error {
		sendErr := w.cb.Execute(func() error {
			return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
		})
		if sendErr != nil {
			log.Warn().
				Err(sendErr).
				Int("attempt", attempt+1).
				Str("to", payload.ToEmail).
				Msg("email_worker: intento de envio fallido")
		}
		return sendErr
	})
	if err != nil {
		SendToDLQ(ctx, rdb, QueueEmail, "email", raw, err.Error(), maxEnviosCorreo)
		return
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: correo enviado")
}

// withRetry llama fn hasta maxAttempts veces con backoff exponencial
// (1s, 2s, ...). Devuelve nil si algun intento tiene exito.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
