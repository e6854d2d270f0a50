package entity

import (
	"time"
)

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	IsActive      bool      `json:"is_active"`
	OwnerUsername string    `json:"owner_username"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewProduct(name, description string, price float64, owner string) *Product {
	return &Product{
		Name:          name,
		Description:   description,
		Price:         price,
		IsActive:      true,
		OwnerUsername: owner,
		CreatedAt:     time.Now().UTC(),
	}
}
