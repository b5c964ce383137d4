package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/deepdesert/go/internal/catalog"
	"github.com/mcdev12/deepdesert/go/internal/dbconfig"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// HouseLocation mirrors the JSON structure of the houses file
type HouseLocation struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	IconURL  string `json:"icon_url"`
}

func main() {
	housesPath := flag.String("houses", "", "optional JSON file of house locations")
	flag.Parse()

	ctx := context.Background()

	// 1) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2) Create the map with default options unless one exists
	mapID, created, err := seedMap(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed map: %v\n", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("created map %s with %d default options\n", mapID, len(catalog.DefaultKinds()))
	} else {
		fmt.Printf("map %s already exists, leaving it untouched\n", mapID)
	}

	// 3) Upsert house locations
	if *housesPath == "" {
		houses := defaultHouseLocations()
		inserted, err := seedHouses(ctx, pool, houses)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed houses: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("houses: %d total, %d inserted\n", len(houses), inserted)
		return
	}

	data, err := os.ReadFile(*housesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var houses []HouseLocation
	if err := json.Unmarshal(data, &houses); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}
	inserted, err := seedHouses(ctx, pool, houses)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed houses: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("houses: %d total, %d inserted\n", len(houses), inserted)
}

func seedMap(ctx context.Context, pool *pgxpool.Pool) (string, bool, error) {
	var mapID string
	err := pool.QueryRow(ctx, `SELECT id::text FROM maps ORDER BY created_at LIMIT 1`).Scan(&mapID)
	if err == nil {
		return mapID, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO maps DEFAULT VALUES RETURNING id::text`).Scan(&mapID); err != nil {
			return fmt.Errorf("insert map: %w", err)
		}
		for _, k := range catalog.DefaultKinds() {
			rows := make([]string, len(k.RestrictedRows))
			for i, r := range k.RestrictedRows {
				rows[i] = string(r)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO dropdown_options (map_id, option_id, label, color, has_sub_options, restricted_rows)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, mapID, k.ID, k.Label, string(k.Color), k.HasSubChoices, rows); err != nil {
				return fmt.Errorf("insert option %s: %w", k.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, `INSERT INTO settings (map_id) VALUES ($1)`, mapID); err != nil {
			return fmt.Errorf("insert settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return mapID, true, nil
}

func seedHouses(ctx context.Context, pool *pgxpool.Pool, houses []HouseLocation) (int, error) {
	inserted := 0
	for _, h := range houses {
		tag, err := pool.Exec(ctx, `
			INSERT INTO houses (name, location, icon_url)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, h.Name, h.Location, h.IconURL)
		if err != nil {
			return inserted, fmt.Errorf("insert house %s: %w", h.Name, err)
		}
		if tag.RowsAffected() == 1 {
			inserted++
		}
	}
	return inserted, nil
}

func defaultHouseLocations() []HouseLocation {
	out := make([]HouseLocation, 0, len(catalog.Houses()))
	for _, h := range catalog.Houses() {
		out = append(out, toLocation(h))
	}
	return out
}

func toLocation(h models.House) HouseLocation {
	return HouseLocation{Name: h.Name, IconURL: h.IconRef}
}
