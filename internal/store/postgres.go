package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"swiftflow/api/internal/department"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, username, full_name, COALESCE(email,''), COALESCE(phone_number,''), password_hash, department, enabled, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Department, &u.Enabled, &u.CreatedAt)
	return u, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, full_name, email, phone_number, password_hash, department, enabled)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7)
		RETURNING `+userColumns,
		u.Username, u.FullName, u.Email, u.PhoneNumber, u.PasswordHash, u.Department, u.Enabled)
	created, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Department, &u.Enabled, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET full_name=$2, email=NULLIF($3,''), phone_number=NULLIF($4,''), department=$5, enabled=$6
		WHERE id=$1
	`, u.ID, u.FullName, u.Email, u.PhoneNumber, u.Department, u.Enabled)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

const orderColumns = `order_id, product_details, custom_product_details, units, material, department, status,
	design_progress, production_progress, machining_progress, inspection_progress, date_added`

func scanOrder(scan func(dest ...any) error) (Order, error) {
	var o Order
	err := scan(&o.ID, &o.ProductDetails, &o.CustomProductDetails, &o.Units, &o.Material, &o.Department, &o.Status,
		&o.DesignProgress, &o.ProductionProgress, &o.MachiningProgress, &o.InspectionProgress, &o.DateAdded)
	return o, err
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o Order) (Order, error) {
	if o.Department == "" {
		o.Department = department.Enquiry
	}
	if o.Status == "" {
		o.Status = "Active"
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO orders (product_details, custom_product_details, units, material, department, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		o.ProductDetails, o.CustomProductDetails, o.Units, o.Material, o.Department, o.Status)
	created, err := scanOrder(row.Scan)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, id).Scan)
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	items := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateOrderDepartment(ctx context.Context, id int64, dept department.Department) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET department=$2 WHERE order_id=$1`, id, dept)
	if err != nil {
		return fmt.Errorf("update order department: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var progressColumns = map[department.Department]string{
	department.Design:     "design_progress",
	department.Production: "production_progress",
	department.Machining:  "machining_progress",
	department.Inspection: "inspection_progress",
}

func (s *PostgresStore) UpdateStageProgress(ctx context.Context, id int64, stage department.Department, percent int) error {
	column, ok := progressColumns[stage]
	if !ok {
		return fmt.Errorf("no progress column for department %s", stage)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET `+column+`=$2 WHERE order_id=$1`, id, percent)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id=$1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

const statusColumns = `id, order_id, department, COALESCE(comment,''), COALESCE(attachment_url,''), COALESCE(percentage,''), created_at`

// AppendStatus writes one ledger entry. Entries are never updated; reads
// derive current state from the highest matching id.
func (s *PostgresStore) AppendStatus(ctx context.Context, st OrderStatus) (OrderStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO order_statuses (order_id, department, comment, attachment_url, percentage)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''))
		RETURNING `+statusColumns,
		st.OrderID, st.Department, st.Comment, st.AttachmentURL, st.Percentage)
	var created OrderStatus
	err := row.Scan(&created.ID, &created.OrderID, &created.Department, &created.Comment, &created.AttachmentURL, &created.Percentage, &created.CreatedAt)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("append status: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListStatuses(ctx context.Context, orderID int64) ([]OrderStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statusColumns+`
		FROM order_statuses
		WHERE order_id=$1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	items := make([]OrderStatus, 0)
	for rows.Next() {
		var st OrderStatus
		if err := rows.Scan(&st.ID, &st.OrderID, &st.Department, &st.Comment, &st.AttachmentURL, &st.Percentage, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		items = append(items, st)
	}
	return items, rows.Err()
}

// SendToInspection atomically appends the merged inspection entry and
// retires the order's machining assignments. A partial merge must never be
// observable, so both mutations share one transaction.
func (s *PostgresStore) SendToInspection(ctx context.Context, orderID int64, mergedPayload string) (OrderStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO order_statuses (order_id, department, comment)
		VALUES ($1, $2, $3)
		RETURNING `+statusColumns,
		orderID, department.Inspection, mergedPayload)
	var created OrderStatus
	if err := row.Scan(&created.ID, &created.OrderID, &created.Department, &created.Comment, &created.AttachmentURL, &created.Percentage, &created.CreatedAt); err != nil {
		return OrderStatus{}, fmt.Errorf("append merged status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM order_assignments WHERE order_id=$1 AND department=$2
	`, orderID, department.Machining); err != nil {
		return OrderStatus{}, fmt.Errorf("retire machining assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return OrderStatus{}, fmt.Errorf("commit merge tx: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) AssignOrder(ctx context.Context, a OrderAssignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_assignments (order_id, user_id, department, assigned_by)
		VALUES ($1, $2, $3, NULLIF($4,''))
	`, a.OrderID, a.UserID, a.Department, a.AssignedBy)
	if err != nil {
		return fmt.Errorf("assign order: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteOrderAssignments(ctx context.Context, orderID int64, dept department.Department) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM order_assignments WHERE order_id=$1 AND department=$2`, orderID, dept)
	if err != nil {
		return fmt.Errorf("delete order assignments: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOrderAssignments(ctx context.Context, orderID int64) ([]OrderAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, user_id, department, COALESCE(assigned_by,''), assigned_at
		FROM order_assignments
		WHERE order_id=$1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order assignments: %w", err)
	}
	defer rows.Close()

	items := make([]OrderAssignment, 0)
	for rows.Next() {
		var a OrderAssignment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.UserID, &a.Department, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan order assignment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (s *PostgresStore) ListAssignedOrderIDs(ctx context.Context, userID int64, dept department.Department) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id FROM order_assignments WHERE user_id=$1 AND department=$2 ORDER BY id
	`, userID, dept)
	if err != nil {
		return nil, fmt.Errorf("list assigned orders: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assigned order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) CreateMachine(ctx context.Context, name string) (Machine, error) {
	var m Machine
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO machines (machine_name) VALUES ($1)
		RETURNING id, machine_name, created_at
	`, name).Scan(&m.ID, &m.MachineName, &m.CreatedAt)
	if err != nil {
		return Machine{}, fmt.Errorf("insert machine: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMachine(ctx context.Context, id int64) (Machine, error) {
	var m Machine
	err := s.db.QueryRowContext(ctx, `SELECT id, machine_name, created_at FROM machines WHERE id=$1`, id).
		Scan(&m.ID, &m.MachineName, &m.CreatedAt)
	return m, err
}

func (s *PostgresStore) ListMachines(ctx context.Context) ([]Machine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, machine_name, created_at FROM machines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	items := make([]Machine, 0)
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.MachineName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.full_name, COALESCE(u.email,''), COALESCE(u.phone_number,''), u.password_hash, u.department, u.enabled, u.created_at
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash)
	return scanUser(row)
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
