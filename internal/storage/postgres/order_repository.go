package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/omslab/ordercore/internal/domain"
)

var orderColumns = []string{"id", "product_name", "quantity", "price", "status", "created_at"}

// sortColumns сопоставляет поля сортировки с колонками таблицы orders.
var sortColumns = map[domain.SortField]string{
	domain.SortByID:          "id",
	domain.SortByProductName: "product_name",
	domain.SortByQuantity:    "quantity",
	domain.SortByPrice:       "price",
	domain.SortByStatus:      "status",
	domain.SortByCreatedAt:   "created_at",
}

// readOnlyTx: снимок для чтения заказа вместе с позициями.
var readOnlyTx = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}

type orderRepository struct {
	db        *sql.DB
	opTimeout time.Duration
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB(), opTimeout: store.OpTimeout()}
}

// Save вставляет заказ и позиции в одной транзакции. ID и created_at выдаёт база.
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) (_ domain.Order, err error) {
	if order == nil {
		return domain.Order{}, fmt.Errorf("save order: nil order")
	}
	if order.ID != 0 {
		return domain.Order{}, fmt.Errorf("save order: %w", domain.ErrOrderIDAlreadyAssigned)
	}
	if !order.CreatedAt.IsZero() {
		return domain.Order{}, fmt.Errorf("save order: %w", domain.ErrCreatedAtAlreadySet)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := sq.Insert("orders").
		Columns("product_name", "quantity", "price", "status").
		Values(order.ProductName, order.Quantity, order.Price, string(order.Status)).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return domain.Order{}, fmt.Errorf("build insert order: %w", err)
	}

	var (
		id        int64
		createdAt time.Time
	)
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrOrderAlreadyExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	saved := order.Clone()
	if err = saved.AssignID(id); err != nil {
		return domain.Order{}, err
	}
	if err = saved.MarkCreated(createdAt.UTC()); err != nil {
		return domain.Order{}, err
	}

	if len(saved.Items) > 0 {
		insert := sq.Insert("order_items").
			Columns("order_id", "item_name", "quantity", "price").
			PlaceholderFormat(sq.Dollar)
		for _, item := range saved.Items {
			insert = insert.Values(item.OrderID, item.ItemName, item.Quantity, item.Price)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return domain.Order{}, fmt.Errorf("build insert order items: %w", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return domain.Order{}, fmt.Errorf("insert order items: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	*order = saved.Clone()
	return saved, nil
}

// FindByID читает заказ и его позиции в одной read-only транзакции.
func (r *orderRepository) FindByID(ctx context.Context, id int64) (_ domain.Order, _ bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("build select order: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("begin read tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	order, err := scanOrder(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, false, nil
		}
		return domain.Order{}, false, fmt.Errorf("select order: %w", err)
	}

	items, err := loadItems(ctx, tx, []int64{order.ID})
	if err != nil {
		return domain.Order{}, false, err
	}
	order.Items = items[order.ID]
	return order, true, nil
}

// FindPage считает и выбирает окно заказов внутри одной read-only транзакции,
// чтобы счётчики и содержимое страницы были согласованы.
func (r *orderRepository) FindPage(ctx context.Context, req domain.PageRequest) (_ domain.Page, err error) {
	column, ok := sortColumns[req.Sort]
	if !ok {
		return domain.Page{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedSortField, req.Sort)
	}
	where, err := filtersToSQL(req.Filters)
	if err != nil {
		return domain.Page{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return domain.Page{}, fmt.Errorf("begin read tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("orders").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return domain.Page{}, fmt.Errorf("build count orders: %w", err)
	}
	var total int64
	if err = tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return domain.Page{}, fmt.Errorf("count orders: %w", err)
	}
	if total == 0 || req.Size <= 0 || int64(req.Offset()) >= total {
		return domain.NewPage(nil, total, req), nil
	}

	dir := "ASC"
	if req.Direction == domain.Desc {
		dir = "DESC"
	}
	orderBy := []string{column + " " + dir}
	if column != "id" {
		orderBy = append(orderBy, "id "+dir)
	}

	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(where).
		OrderBy(orderBy...).
		Limit(uint64(req.Size)).
		Offset(uint64(req.Offset())).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return domain.Page{}, fmt.Errorf("build select page: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.Page{}, fmt.Errorf("select page: %w", err)
	}
	defer rows.Close()

	content := make([]domain.Order, 0, req.Size)
	ids := make([]int64, 0, req.Size)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return domain.Page{}, fmt.Errorf("scan order row: %w", err)
		}
		content = append(content, order)
		ids = append(ids, order.ID)
	}
	if err = rows.Err(); err != nil {
		return domain.Page{}, fmt.Errorf("iterate order rows: %w", err)
	}

	items, err := loadItems(ctx, tx, ids)
	if err != nil {
		return domain.Page{}, err
	}
	for i := range content {
		content[i].Items = items[content[i].ID]
	}

	return domain.NewPage(content, total, req), nil
}

// Delete удаляет позиции, затем сам заказ.
func (r *orderRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = &domain.NotFoundError{ID: id}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete order: %w", err)
	}
	return nil
}

// queryer: общий интерфейс *sql.DB и *sql.Tx для чтения позиций.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	if err := row.Scan(&order.ID, &order.ProductName, &order.Quantity, &order.Price, &status, &order.CreatedAt); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	if !order.Status.Valid() {
		return domain.Order{}, fmt.Errorf("order %d: unknown status %q", order.ID, status)
	}
	order.CreatedAt = order.CreatedAt.UTC()
	return order, nil
}

// loadItems загружает позиции для набора заказов одним запросом.
func loadItems(ctx context.Context, q queryer, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	result := make(map[int64][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("order_id", "item_name", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("order_id ASC", "id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load order items: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ItemName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		result[item.OrderID] = append(result[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return result, nil
}

// filtersToSQL переводит доменные фильтры в условия squirrel.
func filtersToSQL(filters []domain.Filter) (sq.And, error) {
	where := sq.And{}
	for _, f := range filters {
		column, ok := sortColumns[f.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported filter field %q", f.Field)
		}
		switch f.Op {
		case domain.OpEq:
			if len(f.Values) != 1 {
				return nil, fmt.Errorf("filter %s: expected 1 value, got %d", column, len(f.Values))
			}
			where = append(where, sq.Eq{column: sqlValue(f.Values[0])})
		case domain.OpGte:
			if len(f.Values) != 1 {
				return nil, fmt.Errorf("filter %s: expected 1 value, got %d", column, len(f.Values))
			}
			where = append(where, sq.GtOrEq{column: sqlValue(f.Values[0])})
		case domain.OpBetween:
			if len(f.Values) != 2 {
				return nil, fmt.Errorf("filter %s: expected 2 values, got %d", column, len(f.Values))
			}
			where = append(where,
				sq.GtOrEq{column: sqlValue(f.Values[0])},
				sq.LtOrEq{column: sqlValue(f.Values[1])},
			)
		default:
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return where, nil
}

// sqlValue приводит decimal к строке, чтобы NUMERIC сравнивался без потери точности.
func sqlValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
