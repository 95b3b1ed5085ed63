package auth

import (
	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers this package's bun models with the persistence
// client so migrations and fixtures can resolve them.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
}
