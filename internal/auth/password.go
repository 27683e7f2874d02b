package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 10

var ErrBadCredentials = errors.New("email o contraseña incorrectos")

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword devuelve ErrBadCredentials si el hash está vacío o no coincide.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
