package models

// Tag — пользовательская метка для продуктов кладовой.
type Tag struct {
	ID      string // Уникальный идентификатор тега
	UserUID string // Владелец тега
	Name    string // Название
	Color   string // Цвет в формате #RRGGBB
}

// Location — место хранения продуктов: холодильник, морозилка, полка и т.д.
type Location struct {
	ID      string // Уникальный идентификатор локации
	UserUID string // Владелец локации
	Name    string // Название
}

// DummyTag используется для приёма данных из JSON-запроса на создание тега.
type DummyTag struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// DummyLocation используется для приёма данных из JSON-запроса на создание локации.
type DummyLocation struct {
	Name string `json:"name" validate:"required"`
}
