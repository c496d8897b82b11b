package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: доступ запрещён политикой.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadySubscribed: у пользователя уже есть оплаченная подписка.
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrPaymentGateway: любая ошибка обращения к платёжному провайдеру.
	ErrPaymentGateway = errors.New("payment gateway error")
	// ErrValidation: некорректные входные данные.
	ErrValidation = errors.New("validation error")
	// ErrPhoneTaken: телефон уже зарегистрирован.
	ErrPhoneTaken = fmt.Errorf("%w: phone number already registered", ErrValidation)
	// ErrInvalidCredentials: неверный телефон или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized: токен отсутствует, просрочен или отозван.
	ErrUnauthorized = errors.New("unauthorized")
)
