package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/example/room-calendar/internal/persistence"
)

// RoomCatalog lists the rooms that room reservations may reference.
type RoomCatalog struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewRoomCatalog reads and writes the catalog through store.
func NewRoomCatalog(store persistence.Store, logger *slog.Logger) *RoomCatalog {
	return &RoomCatalog{store: store, logger: defaultLogger(logger)}
}

// All returns every room in catalog order.
func (c *RoomCatalog) All(ctx context.Context) ([]Room, error) {
	if c == nil || c.store == nil {
		return nil, fmt.Errorf("room catalog not configured")
	}
	records, err := c.store.Read(ctx, persistence.RoomsStore)
	if err != nil {
		return nil, err
	}
	rooms := make([]Room, 0, len(records))
	for _, record := range records {
		rooms = append(rooms, decodeRoom(record))
	}
	return rooms, nil
}

// ByName returns the room with the exact name.
func (c *RoomCatalog) ByName(ctx context.Context, name string) (Room, bool, error) {
	rooms, err := c.All(ctx)
	if err != nil {
		return Room{}, false, err
	}
	for _, room := range rooms {
		if room.Name == name {
			return room, true, nil
		}
	}
	return Room{}, false, nil
}

// Exists reports whether a room with the exact name is listed.
func (c *RoomCatalog) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := c.ByName(ctx, name)
	return ok, err
}

// Add validates and appends a room.
func (c *RoomCatalog) Add(ctx context.Context, room Room) (err error) {
	logger := serviceLogger(ctx, c.logger, "RoomCatalog", "Add", "room", room.Name)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room added")
	}()

	room.Name = strings.TrimSpace(room.Name)
	if vErr := validateRoom(room); vErr.HasErrors() {
		return vErr
	}

	rooms, err := c.All(ctx)
	if err != nil {
		return err
	}
	for _, existing := range rooms {
		if strings.EqualFold(existing.Name, room.Name) {
			return ErrAlreadyExists
		}
	}

	rooms = append(rooms, room)
	return c.save(ctx, rooms)
}

// Remove deletes the room with the exact name.
func (c *RoomCatalog) Remove(ctx context.Context, name string) error {
	rooms, err := c.All(ctx)
	if err != nil {
		return err
	}
	for i, room := range rooms {
		if room.Name == name {
			rooms = append(rooms[:i], rooms[i+1:]...)
			return c.save(ctx, rooms)
		}
	}
	return ErrNotFound
}

func (c *RoomCatalog) save(ctx context.Context, rooms []Room) error {
	records := make([]persistence.Record, len(rooms))
	for i, room := range rooms {
		records[i] = encodeRoom(room)
	}
	return c.store.Write(ctx, persistence.RoomsStore, records)
}

func validateRoom(room Room) *ValidationError {
	vErr := &ValidationError{}
	if room.Name == "" {
		vErr.add("name", "name is required")
	}
	if room.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}
	return vErr
}

func decodeRoom(record persistence.Record) Room {
	capacity, _ := strconv.Atoi(strings.TrimSpace(record["capacity"]))
	return Room{
		Name:      record["roomName"],
		Location:  record["location"],
		Capacity:  capacity,
		Amenities: record["amenities"],
		Status:    record["status"],
	}
}

func encodeRoom(room Room) persistence.Record {
	record := persistence.Record{
		"roomName": room.Name,
		"capacity": strconv.Itoa(room.Capacity),
	}
	if room.Location != "" {
		record["location"] = room.Location
	}
	if room.Amenities != "" {
		record["amenities"] = room.Amenities
	}
	if room.Status != "" {
		record["status"] = room.Status
	}
	return record
}
