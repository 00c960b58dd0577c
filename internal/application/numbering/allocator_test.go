package numbering_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-dian/internal/application/numbering"
	"github.com/tu-usuario/facturacion-dian/internal/domain"
	"github.com/tu-usuario/facturacion-dian/internal/domain/entity"
)

var ahora = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

// rangoEnMemoria simula el repositorio con la semántica del lock de fila:
// GetDefaultActiveForUpdate toma el mutex y UpdateCounter lo libera, igual
// que SELECT ... FOR UPDATE retiene la fila hasta el final de la transacción.
type rangoEnMemoria struct {
	mu  sync.Mutex
	rng *entity.NumberingRange
}

func (f *rangoEnMemoria) GetDefaultActiveForUpdate(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	f.mu.Lock()
	if f.rng == nil || !f.rng.EstaVigente(ahora) ||
		(f.rng.Status != entity.RangeStatusActivo && f.rng.Status != entity.RangeStatusAgotado) {
		f.mu.Unlock()
		return nil, nil
	}
	copia := *f.rng
	return &copia, nil
}

func (f *rangoEnMemoria) UpdateCounter(ctx context.Context, r *entity.NumberingRange) error {
	copia := *r
	f.rng = &copia
	f.mu.Unlock()
	return nil
}

func (f *rangoEnMemoria) Create(ctx context.Context, r *entity.NumberingRange) error {
	copia := *r
	f.rng = &copia
	return nil
}
func (f *rangoEnMemoria) GetByID(ctx context.Context, id string) (*entity.NumberingRange, error) {
	return f.rng, nil
}
func (f *rangoEnMemoria) GetDefaultActive(ctx context.Context, fiscalProfileID string) (*entity.NumberingRange, error) {
	return f.rng, nil
}
func (f *rangoEnMemoria) ListByProfile(ctx context.Context, fiscalProfileID string) ([]*entity.NumberingRange, error) {
	if f.rng == nil {
		return nil, nil
	}
	return []*entity.NumberingRange{f.rng}, nil
}
func (f *rangoEnMemoria) UpdateStatus(ctx context.Context, id, status string) error {
	if f.rng != nil && f.rng.ID == id {
		f.rng.Status = status
	}
	return nil
}

type notificadorContador struct {
	mu     sync.Mutex
	conteo int
}

func (n *notificadorContador) NotifyRangeExhaustion(ctx context.Context, r *entity.NumberingRange) {
	n.mu.Lock()
	n.conteo++
	n.mu.Unlock()
}

func nuevoRango(prefix string, start, end int64) *entity.NumberingRange {
	return &entity.NumberingRange{
		ID:               "rango-1",
		FiscalProfileID:  "perfil-1",
		ResolutionNumber: "18764000000001",
		ValidFrom:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:       time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Prefix:           prefix,
		RangeStart:       start,
		RangeEnd:         end,
		CurrentCounter:   start,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		Status:           entity.RangeStatusActivo,
		IsDefault:        true,
		AlertThreshold:   decimal.NewFromInt(90),
	}
}

func nuevoAsignador(n numbering.ExhaustionNotifier) *numbering.Allocator {
	return numbering.NewAllocator(n, nil).WithClock(func() time.Time { return ahora })
}

// TestAllocate_EscenarioSETP reproduce el escenario de referencia: rango
// SETP 1-3 entrega SETP1, SETP2 y SETP3; la cuarta asignación falla con
// ErrRangeExhausted y el rango queda agotado.
func TestAllocate_EscenarioSETP(t *testing.T) {
	repo := &rangoEnMemoria{rng: nuevoRango("SETP", 1, 3)}
	alloc := nuevoAsignador(nil)

	var numeros []string
	for i := 0; i < 3; i++ {
		a, err := alloc.Allocate(context.Background(), repo, "perfil-1")
		require.NoError(t, err)
		numeros = append(numeros, a.FullNumber)
	}
	assert.Equal(t, []string{"SETP1", "SETP2", "SETP3"}, numeros)

	_, err := alloc.Allocate(context.Background(), repo, "perfil-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRangeExhausted),
		"la cuarta asignación debe fallar con ErrRangeExhausted, no ErrNoAvailableRange")
	assert.Equal(t, entity.RangeStatusAgotado, repo.rng.Status)
}

// TestAllocate_SinRangoDisponible verifica el error distinto cuando no hay
// rango por defecto configurado.
func TestAllocate_SinRangoDisponible(t *testing.T) {
	repo := &rangoEnMemoria{rng: nil}
	alloc := nuevoAsignador(nil)

	_, err := alloc.Allocate(context.Background(), repo, "perfil-1")
	assert.True(t, errors.Is(err, domain.ErrNoAvailableRange))
}

// TestAllocate_RangoFueraDeVigencia verifica que un rango vencido no asigna.
func TestAllocate_RangoFueraDeVigencia(t *testing.T) {
	rng := nuevoRango("SETP", 1, 100)
	rng.ValidUntil = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) // antes de ahora
	repo := &rangoEnMemoria{rng: rng}
	alloc := nuevoAsignador(nil)

	_, err := alloc.Allocate(context.Background(), repo, "perfil-1")
	assert.True(t, errors.Is(err, domain.ErrNoAvailableRange))
}

// TestAllocate_ContadorMonotono verifica que el consecutivo crece de uno en
// uno y nunca retrocede.
func TestAllocate_ContadorMonotono(t *testing.T) {
	repo := &rangoEnMemoria{rng: nuevoRango("FE", 10, 20)}
	alloc := nuevoAsignador(nil)

	for esperado := int64(10); esperado <= 20; esperado++ {
		a, err := alloc.Allocate(context.Background(), repo, "perfil-1")
		require.NoError(t, err)
		assert.Equal(t, esperado, a.Sequence)
	}
	assert.Equal(t, int64(21), repo.rng.CurrentCounter)
}

// TestAllocate_ConcurrenciaSinDuplicados lanza asignaciones concurrentes y
// verifica que jamás se entrega el mismo número dos veces ni se salta ninguno.
func TestAllocate_ConcurrenciaSinDuplicados(t *testing.T) {
	const total = 100
	repo := &rangoEnMemoria{rng: nuevoRango("TEST", 1, total)}
	alloc := nuevoAsignador(nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		numeros  = make(map[string]bool)
		agotados int
	)
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				a, err := alloc.Allocate(context.Background(), repo, "perfil-1")
				if err != nil {
					mu.Lock()
					if errors.Is(err, domain.ErrRangeExhausted) {
						agotados++
					}
					mu.Unlock()
					return
				}
				mu.Lock()
				require.False(t, numeros[a.FullNumber], "número duplicado: %s", a.FullNumber)
				numeros[a.FullNumber] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, numeros, total, "deben entregarse exactamente todos los números del rango")
	assert.Equal(t, 10, agotados, "cada goroutine debe terminar con ErrRangeExhausted")
}

// TestAllocate_AlertaUnaSolaVez verifica que la alerta de agotamiento se
// dispara exactamente una vez al cruzar el umbral.
func TestAllocate_AlertaUnaSolaVez(t *testing.T) {
	repo := &rangoEnMemoria{rng: nuevoRango("FE", 1, 10)} // umbral 90%
	notificador := &notificadorContador{}
	alloc := nuevoAsignador(notificador)

	for i := 0; i < 10; i++ {
		_, err := alloc.Allocate(context.Background(), repo, "perfil-1")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, notificador.conteo, "la alerta debe dispararse exactamente una vez")
	assert.True(t, repo.rng.AlertSent)
}
