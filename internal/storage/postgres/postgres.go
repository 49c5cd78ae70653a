package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	notiftype "github.com/ordersys/order-management/internal/types/notification"
	"github.com/ordersys/order-management/internal/types/order"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &PostgresStorage{db: db}

	// проверяем, что БД жива
	if err := s.db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	// создаём таблицы
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStorage) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customers (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            document TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            phone TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            customer_id UUID NOT NULL REFERENCES customers(id),
            order_number TEXT NOT NULL,
            total_value BIGINT NOT NULL,
            status TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id),
            product_name TEXT NOT NULL,
            quantity INT NOT NULL,
            unit_value BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notification_logs (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id),
            old_status TEXT NOT NULL,
            new_status TEXT NOT NULL,
            message TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) CreateCustomer(ctx context.Context, c *order.Customer) error {
	q := `INSERT INTO customers (id,name,document,email,phone,created_at) VALUES($1,$2,$3,$4,$5,$6)`
	_, err := s.db.ExecContext(ctx, q, c.ID, c.Name, c.Document, c.Email, c.Phone, c.CreatedAt)
	return err
}

func (s *PostgresStorage) FindCustomerByEmail(ctx context.Context, email string) (*order.Customer, error) {
	c := &order.Customer{}
	q := `SELECT id,name,document,email,phone,created_at FROM customers WHERE email=$1`
	err := s.db.QueryRowContext(ctx, q, email).
		Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStorage) FindCustomerByID(ctx context.Context, id uuid.UUID) (*order.Customer, error) {
	c := &order.Customer{}
	q := `SELECT id,name,document,email,phone,created_at FROM customers WHERE id=$1`
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateOrder inserts the order and its items in one transaction.
func (s *PostgresStorage) CreateOrder(ctx context.Context, o *order.Order, items []order.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const qOrder = `
        INSERT INTO orders (id,customer_id,order_number,total_value,status,created_at,updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.ExecContext(ctx, qOrder,
		o.ID, o.CustomerID, o.Number, o.TotalValue, o.Status, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const qItem = `
        INSERT INTO order_items (id,order_id,product_name,quantity,unit_value)
        VALUES ($1,$2,$3,$4,$5)`
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, qItem,
			it.ID, it.OrderID, it.ProductName, it.Quantity, it.UnitValue,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStorage) FindOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	const q = `
        SELECT id, customer_id, order_number, total_value, status, created_at, updated_at
        FROM orders WHERE id = $1`
	var o order.Order
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&o.ID, &o.CustomerID, &o.Number, &o.TotalValue, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStorage) FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	const q = `
        SELECT id, order_id, product_name, quantity, unit_value
        FROM order_items WHERE order_id = $1`
	rows, err := s.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.Quantity, &it.UnitValue); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateOrderStatus commits the new status and updated_at in one statement.
func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, updatedAt time.Time) error {
	const q = `
        UPDATE orders
        SET status = $1, updated_at = $2
        WHERE id = $3`
	res, err := s.db.ExecContext(ctx, q, status, updatedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context, f order.ListFilter) ([]order.OrderWithCustomer, int, error) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.Status != nil {
		add("o.status = $%d", *f.Status)
	}
	if f.OrderNumber != "" {
		add("o.order_number ILIKE $%d", "%"+f.OrderNumber+"%")
	}
	if f.CustomerEmail != "" {
		add("c.email ILIKE $%d", "%"+f.CustomerEmail+"%")
	}
	if f.CreatedFrom != nil {
		add("o.created_at >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("o.created_at <= $%d", *f.CreatedTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	qCount := `SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id` + where
	if err := s.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	qList := `
        SELECT o.id, o.customer_id, o.order_number, o.total_value, o.status, o.created_at, o.updated_at,
               c.id, c.name, c.document, c.email, c.phone, c.created_at
        FROM orders o
        JOIN customers c ON c.id = o.customer_id` + where + fmt.Sprintf(`
        ORDER BY o.created_at DESC
        LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []order.OrderWithCustomer
	for rows.Next() {
		var oc order.OrderWithCustomer
		if err := rows.Scan(
			&oc.Order.ID, &oc.Order.CustomerID, &oc.Order.Number, &oc.Order.TotalValue,
			&oc.Order.Status, &oc.Order.CreatedAt, &oc.Order.UpdatedAt,
			&oc.Customer.ID, &oc.Customer.Name, &oc.Customer.Document,
			&oc.Customer.Email, &oc.Customer.Phone, &oc.Customer.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, oc)
	}
	return out, total, rows.Err()
}

func (s *PostgresStorage) GetOrderSummary(ctx context.Context) (*order.Summary, error) {
	sum := &order.Summary{ByStatus: make(map[order.Status]int64)}
	for _, st := range order.AllStatuses() {
		sum.ByStatus[st] = 0
	}

	const qTotals = `
        SELECT COUNT(*), COALESCE(SUM(total_value),0), COUNT(DISTINCT customer_id)
        FROM orders`
	if err := s.db.QueryRowContext(ctx, qTotals).
		Scan(&sum.TotalOrders, &sum.TotalValue, &sum.UniqueCustomers); err != nil {
		return nil, err
	}
	if sum.TotalOrders > 0 {
		sum.AverageOrderValue = sum.TotalValue / sum.TotalOrders
	}

	const qRecent = `SELECT COUNT(*) FROM orders WHERE created_at >= $1`
	thirtyDaysAgo := time.Now().UTC().AddDate(0, 0, -30)
	if err := s.db.QueryRowContext(ctx, qRecent, thirtyDaysAgo).Scan(&sum.OrdersLast30Days); err != nil {
		return nil, err
	}

	const qByStatus = `SELECT status, COUNT(*) FROM orders GROUP BY status`
	rows, err := s.db.QueryContext(ctx, qByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st order.Status
		var n int64
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		sum.ByStatus[st] = n
	}
	return sum, rows.Err()
}

// FindOrderWithCustomer is the consumer-side lookup joining order and
// customer.
func (s *PostgresStorage) FindOrderWithCustomer(ctx context.Context, orderID uuid.UUID) (*order.OrderWithCustomer, error) {
	const q = `
        SELECT o.id, o.customer_id, o.order_number, o.total_value, o.status, o.created_at, o.updated_at,
               c.id, c.name, c.document, c.email, c.phone, c.created_at
        FROM orders o
        JOIN customers c ON c.id = o.customer_id
        WHERE o.id = $1`
	var oc order.OrderWithCustomer
	err := s.db.QueryRowContext(ctx, q, orderID).Scan(
		&oc.Order.ID, &oc.Order.CustomerID, &oc.Order.Number, &oc.Order.TotalValue,
		&oc.Order.Status, &oc.Order.CreatedAt, &oc.Order.UpdatedAt,
		&oc.Customer.ID, &oc.Customer.Name, &oc.Customer.Document,
		&oc.Customer.Email, &oc.Customer.Phone, &oc.Customer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &oc, nil
}

func (s *PostgresStorage) InsertNotificationLog(ctx context.Context, l *notiftype.Log) error {
	const q = `
        INSERT INTO notification_logs (id, order_id, old_status, new_status, message, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := s.db.ExecContext(ctx, q, l.ID, l.OrderID, l.OldStatus, l.NewStatus, l.Message, l.CreatedAt)
	return err
}
