package chat

import (
	"strings"
	"sync"
	"time"
)

// Registry asocia cada instancia de página (clave) con su controlador.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Open crea un controlador nuevo para la clave, reemplazando el anterior: cada
// carga de la página empieza una conversación desde cero.
func (r *Registry) Open(key string, build func() (*Controller, error)) (*Controller, error) {
	c, err := build()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.controllers[key] = c
	r.mu.Unlock()
	return c, nil
}

func (r *Registry) Get(key string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[key]
	return c, ok
}

func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, key)
}

// RemovePrefix elimina todos los controladores cuya clave empieza por prefix.
func (r *Registry) RemovePrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key := range r.controllers {
		if strings.HasPrefix(key, prefix) {
			delete(r.controllers, key)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Prune elimina los controladores sin actividad desde hace más de maxIdle y
// devuelve cuántos quitó.
func (r *Registry) Prune(now time.Time, maxIdle time.Duration) int {
	return r.PruneFunc(now, func(string) time.Duration { return maxIdle })
}

// PruneFunc es Prune con un límite de inactividad por clave. Un límite <= 0
// conserva la clave.
func (r *Registry) PruneFunc(now time.Time, maxIdle func(key string) time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, c := range r.controllers {
		limit := maxIdle(key)
		if limit > 0 && now.Sub(c.LastUsed()) > limit {
			delete(r.controllers, key)
			removed++
		}
	}
	return removed
}
