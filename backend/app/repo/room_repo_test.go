package repo

import (
	"context"
	"errors"
	"testing"

	"apnaghar/backend/app/db"
	"apnaghar/backend/app/models"
	"apnaghar/backend/app/testutil"
)

func seedOwner(t *testing.T, users *UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x", Role: models.RoleOwner}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return u
}

func seedRoom(t *testing.T, rooms *RoomRepository, ownerID uint, city, area string, available bool) *models.Room {
	t.Helper()
	r := &models.Room{OwnerID: ownerID, City: city, Area: area, Rent: 1000, Available: available, RoomImage: "r.jpg", WashroomImage: "w.jpg"}
	if err := rooms.Create(context.Background(), r); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return r
}

func ids(rooms []models.Room) map[uint]bool {
	out := make(map[uint]bool, len(rooms))
	for _, r := range rooms {
		out[r.ID] = true
	}
	return out
}

func TestRoomRepository_SearchFilters(t *testing.T) {
	gdb := testutil.OpenDB(t)
	users, rooms := NewUserRepository(gdb), NewRoomRepository(gdb)
	ctx := context.Background()
	owner := seedOwner(t, users, "alice")

	kothrud := seedRoom(t, rooms, owner.ID, "Pune", "Kothrud", true)
	baner := seedRoom(t, rooms, owner.ID, "pune city", "Baner", true)
	hidden := seedRoom(t, rooms, owner.ID, "Pune", "Aundh", false)
	mumbai := seedRoom(t, rooms, owner.ID, "Mumbai", "Andheri", true)
	literal := seedRoom(t, rooms, owner.ID, "50%_off town", "Center", true)
	evry := seedRoom(t, rooms, owner.ID, "Évry", "Quartier Épinettes", true)

	tests := []struct {
		name       string
		city, area string
		want       []uint
	}{
		{"no filters", "", "", []uint{kothrud.ID, baner.ID, mumbai.ID, literal.ID, evry.ID}},
		{"city case-insensitive substring", "PUNE", "", []uint{kothrud.ID, baner.ID}},
		{"area only", "", "and", []uint{mumbai.ID}},
		{"both filters intersect", "pune", "ban", []uint{baner.ID}},
		{"wildcards are literal", "%_", "", []uint{literal.ID}},
		{"underscore alone", "_", "", []uint{literal.ID}},
		{"accented exact", "Évry", "", []uint{evry.ID}},
		{"accented lower", "évry", "", []uint{evry.ID}},
		{"accented upper", "ÉVRY", "", []uint{evry.ID}},
		{"accented area substring", "", "ÉPINE", []uint{evry.ID}},
		{"no match", "Delhi", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rooms.Search(ctx, tc.city, tc.area)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tc.want) {
				t.Fatalf("got %d rooms %v, want %v", len(gotIDs), gotIDs, tc.want)
			}
			for _, id := range tc.want {
				if !gotIDs[id] {
					t.Fatalf("room %d missing from %v", id, gotIDs)
				}
			}
			if gotIDs[hidden.ID] {
				t.Fatalf("unavailable room returned")
			}
		})
	}

	all, err := rooms.ListAvailable(ctx)
	if err != nil || len(all) != 5 {
		t.Fatalf("list available: %d %v", len(all), err)
	}
	mine, err := rooms.ListByOwner(ctx, owner.ID)
	if err != nil || len(mine) != 6 {
		t.Fatalf("list by owner: %d %v", len(mine), err)
	}
}

func TestRoomRepository_UpdateAndDelete(t *testing.T) {
	gdb := testutil.OpenDB(t)
	users, rooms := NewUserRepository(gdb), NewRoomRepository(gdb)
	ctx := context.Background()
	owner := seedOwner(t, users, "alice")
	r := seedRoom(t, rooms, owner.ID, "Pune", "Kothrud", true)

	r.City, r.Area, r.Rent, r.Available = "Nashik", "Gangapur", 0, false
	if err := rooms.UpdateListing(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := rooms.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.City != "Nashik" || got.Area != "Gangapur" || got.Rent != 0 || got.Available {
		t.Fatalf("zero values not written: %+v", got)
	}
	if got.RoomImage != "r.jpg" {
		t.Fatalf("images must not change on update: %+v", got)
	}

	if err := rooms.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := rooms.FindByID(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := rooms.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	if err := rooms.UpdateListing(ctx, r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update after delete should be ErrNotFound, got %v", err)
	}
}

func TestRoomRepository_UnchangedUpdateSucceeds(t *testing.T) {
	gdb := testutil.OpenDB(t)
	users, rooms := NewUserRepository(gdb), NewRoomRepository(gdb)
	ctx := context.Background()
	owner := seedOwner(t, users, "alice")
	r := seedRoom(t, rooms, owner.ID, "Pune", "Kothrud", true)

	for i := 0; i < 2; i++ {
		if err := rooms.UpdateListing(ctx, r); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
}

func TestRoomRepository_MigrateBackfillsSearchKeys(t *testing.T) {
	gdb := testutil.OpenDB(t)
	users, rooms := NewUserRepository(gdb), NewRoomRepository(gdb)
	ctx := context.Background()
	owner := seedOwner(t, users, "alice")

	// written without the repository, as rows from before the keys existed
	legacy := &models.Room{OwnerID: owner.ID, City: "Évry", Area: "Centre", Rent: 1, Available: true, RoomImage: "a", WashroomImage: "b"}
	if err := gdb.Create(legacy).Error; err != nil {
		t.Fatal(err)
	}
	if got, _ := rooms.Search(ctx, "évry", ""); len(got) != 0 {
		t.Fatalf("keys should still be empty before migration, got %d rooms", len(got))
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	got, err := rooms.Search(ctx, "évry", "centre")
	if err != nil || len(got) != 1 || got[0].ID != legacy.ID {
		t.Fatalf("backfilled room not found: %+v %v", got, err)
	}
}

func TestRoomRepository_OwnerMustExist(t *testing.T) {
	rooms := NewRoomRepository(testutil.OpenDB(t))
	r := &models.Room{OwnerID: 4242, City: "Pune", Area: "Kothrud", Rent: 1, Available: true, RoomImage: "a", WashroomImage: "b"}
	if err := rooms.Create(context.Background(), r); err == nil {
		t.Fatalf("expected foreign key violation for unknown owner")
	}
}
