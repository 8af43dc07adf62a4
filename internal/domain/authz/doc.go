// Package authz es el modelo de autorización: jerarquía de roles y matriz estática
// (rol, recurso) → acciones.
//
// Es puro y sincrónico: sin I/O ni caché, se puede consultar en cada request.
// Una denegación es siempre un false, nunca un error.
package authz
