package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User представляет пользователя приложения WikaTalk
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email       string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password    string     `gorm:"size:100;not null" json:"-"`
	Avatar      string     `gorm:"size:255;not null;default:''" json:"avatar"`
	Coins       int64      `gorm:"not null;default:0;index:idx_users_coins" json:"coins"` // Баланс монет, не может быть отрицательным
	LastLoginAt *time.Time `gorm:"type:timestamp" json:"lastLoginAt,omitempty"`           // Используется как признак недавней активности

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// CanAfford сообщает, хватает ли монет на списание cost
func (u *User) CanAfford(cost int64) bool {
	return cost <= 0 || u.Coins >= cost
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
