package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio del motor de facturación (sin dependencias externas).
// La capa HTTP los mapea a códigos de respuesta; ninguno se reintenta
// automáticamente.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("datos de entrada inválidos")

	// ErrNoAvailableRange: no existe rango de numeración activo y por defecto
	// para el perfil fiscal. Requiere revisar configuración.
	ErrNoAvailableRange = errors.New("no hay rangos de numeración activos disponibles")

	// ErrRangeExhausted: el consecutivo superó el final del rango autorizado.
	// Requiere solicitar un nuevo rango a la DIAN (distinto de ErrNoAvailableRange).
	ErrRangeExhausted = errors.New("rango de numeración agotado")

	// ErrAlreadyInvoiced: la venta ya tiene factura electrónica no anulada.
	ErrAlreadyInvoiced = errors.New("la venta ya tiene factura electrónica generada")

	// ErrMappingError: la venta no tiene los datos mínimos para facturar
	// (sin cliente, sin documento del adquiriente, sin ítems ni total).
	ErrMappingError = errors.New("datos de la venta incompletos para facturación")

	// ErrInvalidFieldFormat: precondición del CUFE violada (monto sin dos
	// decimales, clave técnica ausente, identidad vacía).
	ErrInvalidFieldFormat = errors.New("formato de campo inválido para el CUFE")

	// ErrEncodingError: el documento no pasa la conciliación interna antes de
	// serializar (totales que no cuadran dentro de un centavo).
	ErrEncodingError = errors.New("el documento no concilia para codificación UBL")

	// ErrPersistenceFailure: fallo de la capa de almacenamiento.
	ErrPersistenceFailure = errors.New("fallo de persistencia")
)

// Etapas del ciclo de emisión (máquina de estados del orquestador).
const (
	StageValidated     = "validacion"
	StageNumbered      = "numeracion"
	StageMapped        = "mapeo"
	StageFingerprinted = "cufe"
	StageEncoded       = "codificacion"
	StagePersisted     = "persistencia"
)

// StageError reporta en qué etapa de la emisión falló el intento.
// Envuelve el error de dominio original: errors.Is sigue funcionando.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("emisión fallida en etapa %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError construye el error de etapa.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
