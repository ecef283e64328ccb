// Package access rozstrzyga, czy dana tożsamość może czytać lub zapisywać nod.
// Decyzja jest czystą funkcją nad pobranym wcześniej łańcuchem przodków
// i mapą uprawnień, więc jedna para zapytań wystarcza na cały request.
package access

import (
	"drzewo-plikow/internal/auth"
	"drzewo-plikow/internal/models"
)

// Authorize: admin i właściciel mają pełny dostęp. Poza tym decyduje
// NAJBLIŻSZY przodek (włącznie z samym nodem), który ma jakikolwiek wpis
// uprawnień — dalsi przodkowie nie są brani pod uwagę, nawet gdyby dawali
// szersze prawa. Brak wpisu na całym łańcuchu oznacza odmowę.
//
// chain musi być uporządkowany od noda do korzenia, z nodem na pozycji 0.
func Authorize(claims *auth.AppClaims, chain []models.Node, grants map[string]models.Grant, requireWrite bool) bool {
	if claims == nil || len(chain) == 0 {
		return false
	}
	if claims.IsAdmin {
		return true
	}
	if chain[0].OwnerID == claims.UserID {
		return true
	}

	for _, ancestor := range chain {
		grant, ok := grants[ancestor.ID]
		if !ok {
			continue
		}
		if requireWrite {
			return grant.CanWrite
		}
		return grant.CanRead || grant.CanWrite
	}

	return false
}
