package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt молча обрезает всё длиннее 72 байт
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Bcrypt{cost: cost}
}

func (b Bcrypt) HashPassword(p string) (string, error) {
	if len(p) > 72 {
		return "", ErrPasswordTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(p), b.cost)
	return string(bytes), err
}

func (b Bcrypt) CheckPassword(hashed, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
