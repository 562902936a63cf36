package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Save сохраняет новый заказ вместе с позициями и возвращает его с ID и CreatedAt.
	Save(ctx context.Context, order *Order) (Order, error)
	// FindByID возвращает заказ; found=false, если его нет. Отсутствие не является ошибкой.
	FindByID(ctx context.Context, id int64) (Order, bool, error)
	// FindPage возвращает отсортированное окно заказов и счётчики.
	FindPage(ctx context.Context, req PageRequest) (Page, error)
	// Delete удаляет заказ вместе с позициями или возвращает ErrOrderNotFound.
	Delete(ctx context.Context, id int64) error
}
