package models

// User представляет зарегистрированного пользователя.
// PhoneNumber уникален и является единственным логином.
type User struct {
	ID             int64  `json:"id"`
	PhoneNumber    string `json:"phone_number"`
	PasswordHash   string `json:"-"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	IsActive       bool   `json:"is_active"`
	IsStaff        bool   `json:"is_staff"`
	IsSuperuser    bool   `json:"is_superuser"`
	SubscriptionID *int64 `json:"subscription_id,omitempty"`
}

// ProfileInput: редактируемые поля профиля.
type ProfileInput struct {
	FirstName string `json:"first_name" validate:"omitempty,max=30"`
	LastName  string `json:"last_name" validate:"omitempty,max=30"`
	Avatar    string `json:"avatar" validate:"omitempty,max=255"`
}

// Viewer описывает того, кто выполняет запрос: аутентифицированного
// пользователя или анонима (нулевое значение).
type Viewer struct {
	UserID        int64
	Phone         string
	Authenticated bool
	IsStaff       bool
	IsSuperuser   bool
}

// Anonymous возвращает неаутентифицированного зрителя.
func Anonymous() Viewer {
	return Viewer{}
}

// RegisterInput данные регистрации.
type RegisterInput struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=40"`
	Password    string `json:"password" validate:"required,min=5,max=72"`
	FirstName   string `json:"first_name" validate:"omitempty,max=30"`
	LastName    string `json:"last_name" validate:"omitempty,max=30"`
}

// LoginInput данные входа по телефону и паролю.
type LoginInput struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}
