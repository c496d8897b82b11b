// Package password хеширует пароли пользователей блога и сверяет их при входе по телефону.
//
// bcrypt учитывает только первые 72 байта, поэтому длинные пароли отклоняются
// при регистрации, а не обрезаются молча. RegisterInput ограничивает пароль
// тем же значением (validate:"max=72"), но max считает символы, а не байты:
// кириллический пароль из 40 символов проходит валидацию и упирается в MaxBytes здесь.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes предел длины пароля bcrypt.
const MaxBytes = 72

// ErrMismatch пароль не подходит к сохранённому хешу.
var ErrMismatch = errors.New("password does not match")

// GetHash возвращает bcrypt-хеш для колонки users.password_hash.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxBytes {
		return "", fmt.Errorf("%s: %d bytes: %w", op, len(password), bcrypt.ErrPasswordTooLong)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сверяет пароль, введённый при входе, с хешем пользователя.
//
// Неверный пароль возвращает ErrMismatch. Любая другая ошибка означает
// испорченный хеш в базе и не должна выдаваться клиенту за неверный пароль.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
