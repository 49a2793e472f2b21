package worker

// conexion_sweeper.go
// Goroutine de fondo que barre periodicamente la tabla de conexiones y borra
// las sesiones websocket cuyo registro quedo huerfano (el proceso murio sin
// ejecutar el cleanup de desconexion).

import (
	"context"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	sweepInterval    = 5 * time.Minute
	staleConexionTTL = 30 * time.Minute
)

// StartConexionSweeper lanza la goroutine de barrido. Respeta el contexto
// para el apagado ordenado.
func StartConexionSweeper(ctx context.Context, repo repository.ConexionRepository) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		log.Info().Msg("conexion_sweeper: iniciado")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("conexion_sweeper: apagandose")
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-staleConexionTTL)
				n, err := repo.DeleteStale(ctx, cutoff)
				if err != nil {
					log.Error().Err(err).Msg("conexion_sweeper: fallo el barrido")
					continue
				}
				if n > 0 {
					log.Info().Int64("borradas", n).Msg("conexion_sweeper: conexiones huerfanas eliminadas")
				}
			}
		}
	}()
}
