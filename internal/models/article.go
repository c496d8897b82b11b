// Package models содержит доменные структуры блога: статьи, пользователей,
// подписки, а также типы для приёма данных из JSON-запросов.
package models

import "time"

// Article представляет статью блога.
// Views только растёт: меняется исключительно атомарным инкрементом в хранилище.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Preview   string    `json:"preview,omitempty"` // Ссылка на изображение предпросмотра
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   *int64    `json:"owner_id,omitempty"` // nil, если владелец не задан
	IsPremium bool      `json:"is_premium"`
}

// ArticleInput используется для приёма данных статьи из JSON-запроса
// при создании и редактировании.
type ArticleInput struct {
	Title     string `json:"title" validate:"required,max=100"`
	Content   string `json:"content" validate:"required"`
	Preview   string `json:"preview,omitempty" validate:"omitempty,max=255"`
	IsPremium bool   `json:"is_premium"`
}
