package repository

import "context"

// KeyValueStore almacén local clave/valor para la caché de roles.
// Es consultivo: nunca tiene autoridad sobre una partición que responde.
type KeyValueStore interface {
	// Get devuelve (valor, true, nil) si existe la clave.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
