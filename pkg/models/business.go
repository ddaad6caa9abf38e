package models

import "time"

// Client is a customer organization.
type Client struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,max=200"`
	Email     *string   `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Company   *string   `json:"company,omitempty" db:"company"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (c Client) RecordID() string { return c.ID }

// Project groups chatbots, payments and hardware for one client.
type Project struct {
	ID          string    `json:"id" db:"id"`
	ClientID    *string   `json:"client_id,omitempty" db:"client_id"`
	Name        string    `json:"name" db:"name" validate:"required,max=200"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status" validate:"required,oneof=planning active on_hold completed cancelled"`
	Budget      *float64  `json:"budget,omitempty" db:"budget" validate:"omitempty,min=0"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (p Project) RecordID() string { return p.ID }

// Payment is an invoice payment received from a client.
type Payment struct {
	ID        string     `json:"id" db:"id"`
	ClientID  *string    `json:"client_id,omitempty" db:"client_id"`
	ProjectID *string    `json:"project_id,omitempty" db:"project_id"`
	Amount    float64    `json:"amount" db:"amount" validate:"gt=0"`
	Currency  string     `json:"currency" db:"currency" validate:"required,len=3"`
	Status    string     `json:"status" db:"status" validate:"required,oneof=pending paid failed refunded"`
	PaidAt    *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

func (p Payment) RecordID() string { return p.ID }

// Employee is a member of staff.
type Employee struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name" validate:"required"`
	Email      string    `json:"email" db:"email" validate:"required,email"`
	Role       string    `json:"role" db:"role"`
	Department string    `json:"department" db:"department"`
	Status     string    `json:"status" db:"status" validate:"required,oneof=active inactive"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (e Employee) RecordID() string { return e.ID }
