package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order lifecycle states. An order is "paid" as soon as a payment method is
// attached at checkout; real capture happens outside this system.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Accepted payment methods.
const (
	PaymentCard   = "card"
	PaymentPix    = "pix"
	PaymentBoleto = "boleto"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:user"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Username  string    `bun:"username,unique,notnull" json:"username"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"`
	FirstName string    `bun:"first_name" json:"first_name"`
	LastName  string    `bun:"last_name" json:"last_name"`
	Active    bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitzero"`

	Profile *Profile `bun:"rel:has-one,join:id=user_id" json:"-"`
}

// FullName joins first and last name, falling back to the username when the
// account has no display name.
func (u *User) FullName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// Profile carries the person data behind an account. Exactly one per user;
// CPF uniqueness is enforced by the database, not just the registration flow.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:profile"`

	ID       int64  `bun:"id,pk,autoincrement" json:"-"`
	UserID   int64  `bun:"user_id,unique,notnull" json:"-"`
	CPF      string `bun:"cpf,unique,notnull" json:"cpf"`
	Telefone string `bun:"telefone,nullzero" json:"telefone,omitempty"`
	Endereco string `bun:"endereco,nullzero" json:"endereco,omitempty"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

type Event struct {
	bun.BaseModel `bun:"table:eventos,alias:evento"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	Nome          string          `bun:"nome,notnull" json:"nome"`
	Local         string          `bun:"local,notnull" json:"local"`
	Cidade        string          `bun:"cidade,notnull" json:"cidade"`
	Data          time.Time       `bun:"data,notnull" json:"data"`
	Descricao     string          `bun:"descricao" json:"descricao"`
	Imagem        string          `bun:"imagem" json:"imagem"`
	Preco         decimal.Decimal `bun:"preco,notnull" json:"preco"`
	PrecoExcursao decimal.Decimal `bun:"preco_excursao,notnull" json:"preco_excursao"`
}

type Order struct {
	bun.BaseModel `bun:"table:pedidos,alias:pedido"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	UserID         *int64          `bun:"user_id" json:"user_id,omitempty"`
	Status         string          `bun:"status,notnull,default:'pending'" json:"status"`
	FormaPagamento string          `bun:"forma_pagamento,nullzero" json:"forma_pagamento,omitempty"`
	ValorTotal     decimal.Decimal `bun:"valor_total,notnull" json:"valor_total"`
	Observacoes    string          `bun:"observacoes,nullzero" json:"observacoes,omitempty"`
	CriadoEm       time.Time       `bun:"criado_em,notnull,default:current_timestamp" json:"criado_em"`
	AtualizadoEm   time.Time       `bun:"atualizado_em,nullzero" json:"atualizado_em,omitzero"`

	User  *User        `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"itens"`
}

// OrderItem is one (event, quantity) line of an order. The prices are
// snapshots resolved at order creation, so later event edits never rewrite
// order history.
type OrderItem struct {
	bun.BaseModel `bun:"table:itens_pedido,alias:item"`

	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	OrderID       int64           `bun:"order_id,notnull" json:"-"`
	EventID       int64           `bun:"event_id,notnull" json:"evento_id"`
	Quantidade    int             `bun:"quantidade,notnull,default:1" json:"quantidade"`
	PrecoIngresso decimal.Decimal `bun:"preco_ingresso,notnull" json:"preco_ingresso"`
	PrecoExcursao decimal.Decimal `bun:"preco_excursao,notnull" json:"preco_excursao"`
	Subtotal      decimal.Decimal `bun:"subtotal,notnull" json:"subtotal"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id" json:"-"`
	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"-"`
}
