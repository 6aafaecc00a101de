package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
)

const equipmentSelect = `SELECT e.id, e.name, e.category, e.model, e.lab, e.buying_date, e.serial_number,
	e.fiu_id, e.quantity, e.price, e.status, e.notes, e.image, e.manual_link,
	e.created_by, e.updated_by,
	cu.first_name || ' ' || cu.last_name,
	uu.first_name || ' ' || uu.last_name,
	e.created_at, e.updated_at
	FROM equipment e
	LEFT JOIN users cu ON cu.id = e.created_by
	LEFT JOIN users uu ON uu.id = e.updated_by`

func scanEquipment(row rowScanner) (*model.Equipment, error) {
	e := &model.Equipment{}
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Category,
		&e.Model,
		&e.Lab,
		&e.BuyingDate,
		&e.SerialNumber,
		&e.FIUID,
		&e.Quantity,
		&e.Price,
		&e.Status,
		&e.Notes,
		&e.Image,
		&e.ManualLink,
		&e.CreatedBy,
		&e.UpdatedBy,
		&e.CreatedByName,
		&e.UpdatedByName,
		database.ScanTime(&e.CreatedAt),
		database.ScanTime(&e.UpdatedAt),
	); err != nil {
		return nil, err
	}
	return e, nil
}

// buildEquipmentQuery 組合列表查詢；Labs 非 nil 時限制在授權實驗室內
func buildEquipmentQuery(f model.EquipmentFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Labs != nil {
		marks := make([]string, len(f.Labs))
		for i, lab := range f.Labs {
			marks[i] = "?"
			args = append(args, lab)
		}
		where = append(where, "e.lab IN ("+strings.Join(marks, ", ")+")")
	}
	if f.Lab != "" {
		where = append(where, "e.lab = ?")
		args = append(args, f.Lab)
	}
	if f.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		stripped := "%" + strings.ReplaceAll(s, "-", "") + "%"
		where = append(where, `(e.name LIKE ? OR e.category LIKE ? OR e.model LIKE ? OR e.serial_number LIKE ?
			OR e.fiu_id LIKE ? OR e.notes LIKE ? OR REPLACE(e.fiu_id, '-', '') LIKE ?)`)
		args = append(args, like, like, like, like, like, like, stripped)
	}

	q := equipmentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY e.created_at DESC, e.id DESC"
	return q, args
}

func ListEquipment(ctx context.Context, db database.DB, f model.EquipmentFilter) ([]model.Equipment, error) {
	items := []model.Equipment{}
	// 沒有任何授權實驗室
	if f.Labs != nil && len(f.Labs) == 0 {
		return items, nil
	}

	q, args := buildEquipmentQuery(f)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListEquipment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEquipment: %w", err)
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEquipment: %w", err)
	}
	return items, nil
}

func GetEquipment(ctx context.Context, db database.DB, id int64) (*model.Equipment, error) {
	e, err := scanEquipment(db.QueryRowContext(ctx, equipmentSelect+" WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetEquipment: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetEquipment: %w", err)
	}
	return e, nil
}

func CreateEquipment(ctx context.Context, db database.DB, e *model.Equipment) (*model.Equipment, error) {
	row := db.QueryRowContext(ctx,
		`INSERT INTO equipment (name, category, model, lab, buying_date, serial_number, fiu_id,
		                        quantity, price, status, notes, image, manual_link, created_by, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id, created_at, updated_at`,
		e.Name,
		e.Category,
		e.Model,
		e.Lab,
		e.BuyingDate,
		e.SerialNumber,
		e.FIUID,
		e.Quantity,
		e.Price,
		e.Status,
		e.Notes,
		e.Image,
		e.ManualLink,
		e.CreatedBy,
		e.UpdatedBy,
	)
	if err := row.Scan(&e.ID, database.ScanTime(&e.CreatedAt), database.ScanTime(&e.UpdatedAt)); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("CreateEquipment: %w", ErrConflict)
		}
		return nil, fmt.Errorf("CreateEquipment: %w", err)
	}
	return e, nil
}

// UpdateEquipment 覆寫所有可編輯欄位 (含 image)，created_* 不變
func UpdateEquipment(ctx context.Context, db database.DB, e *model.Equipment) error {
	res, err := db.ExecContext(ctx,
		`UPDATE equipment
		 SET name = ?, category = ?, model = ?, lab = ?, buying_date = ?, serial_number = ?,
		     fiu_id = ?, quantity = ?, price = ?, status = ?, notes = ?, image = ?, manual_link = ?,
		     updated_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Name,
		e.Category,
		e.Model,
		e.Lab,
		e.BuyingDate,
		e.SerialNumber,
		e.FIUID,
		e.Quantity,
		e.Price,
		e.Status,
		e.Notes,
		e.Image,
		e.ManualLink,
		e.UpdatedBy,
		e.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("UpdateEquipment: %w", ErrConflict)
		}
		return fmt.Errorf("UpdateEquipment: %w", err)
	}
	return requireAffected("UpdateEquipment", res)
}

func UpdateEquipmentImage(ctx context.Context, db database.DB, id int64, image *string, updatedBy *int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE equipment SET image = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image,
		updatedBy,
		id,
	)
	if err != nil {
		return fmt.Errorf("UpdateEquipmentImage: %w", err)
	}
	return requireAffected("UpdateEquipmentImage", res)
}

func DeleteEquipment(ctx context.Context, db database.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteEquipment: %w", err)
	}
	return requireAffected("DeleteEquipment", res)
}

// DeleteAllEquipment 清空設備並重設自動編號，回傳刪除筆數
func DeleteAllEquipment(ctx context.Context, db database.DB) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllEquipment: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM equipment`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllEquipment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAllEquipment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'equipment'`); err != nil {
		return 0, fmt.Errorf("DeleteAllEquipment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("DeleteAllEquipment: %w", err)
	}
	return n, nil
}

func CountEquipment(ctx context.Context, db database.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM equipment`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountEquipment: %w", err)
	}
	return n, nil
}

func ListSerialNumbers(ctx context.Context, db database.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT serial_number FROM equipment`)
	if err != nil {
		return nil, fmt.Errorf("ListSerialNumbers: %w", err)
	}
	defer rows.Close()

	serials := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("ListSerialNumbers: %w", err)
		}
		serials = append(serials, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListSerialNumbers: %w", err)
	}
	return serials, nil
}

func CountEquipmentByStatus(ctx context.Context, db database.DB) ([]model.StatusCount, error) {
	return countBy(ctx, db, "CountEquipmentByStatus", "status")
}

func CountEquipmentByLab(ctx context.Context, db database.DB) ([]model.StatusCount, error) {
	return countBy(ctx, db, "CountEquipmentByLab", "lab")
}

// column 僅由本檔內呼叫者提供
func countBy(ctx context.Context, db database.DB, op, column string) ([]model.StatusCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM equipment GROUP BY `+column+` ORDER BY COUNT(*) DESC, `+column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := []model.StatusCount{}
	for rows.Next() {
		var c model.StatusCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}
