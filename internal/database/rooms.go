package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"
)

const roomColumns = `id, name, description, bed_only, bb, half_board, full_board,
        capacity, amenities, image_url, created_at, updated_at`

// SyncRooms upserts the configured catalog. Rooms missing from the list are kept.
func (db *DB) SyncRooms(ctx context.Context, rooms []models.Room) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin rooms sync", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO rooms (` + roomColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                name = excluded.name,
                description = excluded.description,
                bed_only = excluded.bed_only,
                bb = excluded.bb,
                half_board = excluded.half_board,
                full_board = excluded.full_board,
                capacity = excluded.capacity,
                amenities = excluded.amenities,
                image_url = excluded.image_url,
                updated_at = excluded.updated_at`

	now := time.Now()
	for i := range rooms {
		room := rooms[i]
		amenities, err := json.Marshal(nonNilStrings(room.Amenities))
		if err != nil {
			return fmt.Errorf("failed to encode amenities of room %s: %w", room.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			room.ID,
			room.Name,
			room.Description,
			room.BedOnly,
			room.BB,
			room.HalfBoard,
			room.FullBoard,
			room.Capacity,
			string(amenities),
			room.ImageURL,
			now,
			now,
		); err != nil {
			return wrapErr("failed to upsert room", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit rooms sync", err)
	}

	db.logger.Info().Int("rooms", len(rooms)).Msg("Room catalog synchronized")
	return nil
}

func (db *DB) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	room, err := scanRoom(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to get room", err)
	}
	return room, nil
}

// ListRooms returns the catalog cheapest first by full-board rate.
func (db *DB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY full_board ASC, name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to list rooms", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, wrapErr("failed to scan room", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate rooms", err)
	}
	return rooms, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	var amenities string
	err := row.Scan(
		&room.ID, &room.Name, &room.Description, &room.BedOnly, &room.BB, &room.HalfBoard, &room.FullBoard,
		&room.Capacity, &amenities, &room.ImageURL, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if amenities != "" {
		if err := json.Unmarshal([]byte(amenities), &room.Amenities); err != nil {
			return nil, fmt.Errorf("failed to decode amenities of room %s: %w", room.ID, err)
		}
	}
	return &room, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// UpsertRoom writes a single room and returns the stored row.
func (db *DB) UpsertRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	if err := db.SyncRooms(ctx, []models.Room{room}); err != nil {
		return nil, err
	}
	return db.FindRoom(ctx, room.ID)
}

// DeleteRoom removes a room unless a pending or confirmed booking still holds it.
func (db *DB) DeleteRoom(ctx context.Context, id string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapErr("failed to begin room delete", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var holding int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE room_id = ? AND status IN (?, ?)`,
		id, models.StatusPending, models.StatusConfirmed,
	).Scan(&holding)
	if err != nil {
		return false, wrapErr("failed to count room bookings", err)
	}
	if holding > 0 {
		return false, fmt.Errorf("room %s: %w", id, domain.ErrRoomInUse)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return false, wrapErr("failed to delete room", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("failed to delete room", err)
	}

	if err := tx.Commit(); err != nil {
		return false, wrapErr("failed to commit room delete", err)
	}

	if affected > 0 {
		db.logger.Info().Str("room_id", id).Msg("Room deleted")
	}
	return affected > 0, nil
}
