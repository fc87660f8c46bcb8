package models

import "time"

// Notification представляет уведомление пользователя в приложении.
type Notification struct {
	ID        string    // Уникальный идентификатор уведомления
	UserUID   string    // Получатель
	Type      string    // Тип уведомления: subscription_updated, scan_limit_warning, ...
	Title     string    // Заголовок
	Body      string    // Текст уведомления
	IsRead    bool      // Прочитано ли уведомление
	CreatedAt time.Time // Время создания
}

// DummyNotification используется для приёма данных из JSON-запроса
// на создание уведомления, прежде чем конвертировать их в Notification.
type DummyNotification struct {
	Type  string `json:"type" validate:"required"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}
