// Package repository содержит хранилища состояния трекера и заявок на бета-тест.
package repository

import "errors"

// ErrSignupExists возвращается при повторной заявке с тем же email.
var ErrSignupExists = errors.New("signup already exists")
