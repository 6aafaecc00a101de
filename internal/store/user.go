package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
)

const userColumns = `id, first_name, last_name, email, panther_id, phone_number, password_hash,
	role, authorized_labs, status, setup_token, setup_token_expiry, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var labs string
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PantherID,
		&u.PhoneNumber,
		&u.PasswordHash,
		&u.Role,
		&labs,
		&u.Status,
		&u.SetupToken,
		database.ScanNullTime(&u.SetupTokenExpiry),
		database.ScanTime(&u.CreatedAt),
		database.ScanTime(&u.UpdatedAt),
	); err != nil {
		return nil, err
	}
	u.AuthorizedLabs = model.SplitLabs(labs)
	return u, nil
}

func getUserWhere(ctx context.Context, db database.DB, op, where string, arg any) (*model.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func GetUserByID(ctx context.Context, db database.DB, userID int64) (*model.User, error) {
	return getUserWhere(ctx, db, "GetUserByID", "id = ?", userID)
}

func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	return getUserWhere(ctx, db, "GetUserByEmail", "email = ?", email)
}

// GetUserBySetupToken 只比對 token，過期與否由呼叫端判斷
func GetUserBySetupToken(ctx context.Context, db database.DB, token string) (*model.User, error) {
	return getUserWhere(ctx, db, "GetUserBySetupToken", "setup_token = ?", token)
}

func ListUsers(ctx context.Context, db database.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return users, nil
}

func CountUsers(ctx context.Context, db database.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountUsers: %w", err)
	}
	return n, nil
}

func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	var expiry *string
	if u.SetupTokenExpiry != nil {
		s := database.FormatTime(*u.SetupTokenExpiry)
		expiry = &s
	}
	row := db.QueryRowContext(ctx,
		`INSERT INTO users (first_name, last_name, email, panther_id, phone_number, password_hash,
		                    role, authorized_labs, status, setup_token, setup_token_expiry)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id, created_at, updated_at`,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PantherID,
		u.PhoneNumber,
		u.PasswordHash,
		u.Role,
		model.JoinLabs(u.AuthorizedLabs),
		u.Status,
		u.SetupToken,
		expiry,
	)
	if err := row.Scan(&u.ID, database.ScanTime(&u.CreatedAt), database.ScanTime(&u.UpdatedAt)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("CreateUser: %w", ErrConflict)
		}
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

// UpdateUser 更新個人資料、角色、實驗室與狀態 (不含密碼與 setup token)
func UpdateUser(ctx context.Context, db database.DB, u *model.User) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users
		 SET first_name = ?, last_name = ?, email = ?, panther_id = ?, phone_number = ?,
		     role = ?, authorized_labs = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PantherID,
		u.PhoneNumber,
		u.Role,
		model.JoinLabs(u.AuthorizedLabs),
		u.Status,
		u.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("UpdateUser: %w", ErrConflict)
		}
		return fmt.Errorf("UpdateUser: %w", err)
	}
	return requireAffected("UpdateUser", res)
}

func UpdateUserPassword(ctx context.Context, db database.DB, userID int64, passwordHash string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		passwordHash,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateUserPassword: %w", err)
	}
	return requireAffected("UpdateUserPassword", res)
}

// ActivateUser 設定密碼、狀態改為 active，並清除 setup token (一次性)
// 只有 token 仍相符且未過期時才會更新，否則回傳 ErrNotFound
func ActivateUser(ctx context.Context, db database.DB, userID int64, token, passwordHash string, now time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, status = ?, setup_token = NULL, setup_token_expiry = NULL,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND setup_token = ? AND setup_token_expiry > ?`,
		passwordHash,
		model.UserStatusActive,
		userID,
		token,
		database.FormatTime(now),
	)
	if err != nil {
		return fmt.Errorf("ActivateUser: %w", err)
	}
	return requireAffected("ActivateUser", res)
}

func SetSetupToken(ctx context.Context, db database.DB, userID int64, token string, expiry time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users
		 SET setup_token = ?, setup_token_expiry = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		token,
		database.FormatTime(expiry),
		userID,
	)
	if err != nil {
		return fmt.Errorf("SetSetupToken: %w", err)
	}
	return requireAffected("SetSetupToken", res)
}

func DeleteUser(ctx context.Context, db database.DB, userID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("DeleteUser: %w", err)
	}
	return requireAffected("DeleteUser", res)
}

// EmailTaken 檢查 email 是否被其他使用者使用；excludeID 為 0 時不排除
func EmailTaken(ctx context.Context, db database.DB, email string, excludeID int64) (bool, error) {
	return exists(ctx, db, "EmailTaken", `SELECT 1 FROM users WHERE email = ? AND id != ?`, email, excludeID)
}

func PantherIDTaken(ctx context.Context, db database.DB, pantherID string, excludeID int64) (bool, error) {
	return exists(ctx, db, "PantherIDTaken", `SELECT 1 FROM users WHERE panther_id = ? AND id != ?`, pantherID, excludeID)
}

func exists(ctx context.Context, db database.DB, op, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
