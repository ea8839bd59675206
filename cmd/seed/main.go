package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/seats"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting Ticketly database seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("Seeding completed. Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_seats",
		"bookings",
		"seats",
		"events",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll() error {
	eventIDs, err := s.SeedEvents()
	if err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if err := s.SeedSeats(eventIDs); err != nil {
		return fmt.Errorf("failed to seed seats: %w", err)
	}

	return nil
}

func (s *Seeder) SeedEvents() ([]uuid.UUID, error) {
	now := time.Now()
	eventData := []events.Event{
		{
			ID:          uuid.New(),
			Name:        "Midnight Symphony Orchestra",
			Description: "A full orchestral performance of contemporary film scores",
			Venue:       "Grand Concert Hall",
			DateTime:    now.AddDate(0, 1, 0),
			Status:      events.StatusPublished,
		},
		{
			ID:          uuid.New(),
			Name:        "Indie Rock Festival",
			Description: "Twelve bands across two stages",
			Venue:       "Riverside Amphitheater",
			DateTime:    now.AddDate(0, 2, 14),
			Status:      events.StatusPublished,
		},
		{
			ID:          uuid.New(),
			Name:        "Stand-up Comedy Night",
			Description: "Headline set plus three openers",
			Venue:       "The Basement Club",
			DateTime:    now.AddDate(0, 0, 21),
			Status:      events.StatusPublished,
		},
	}

	ids := make([]uuid.UUID, 0, len(eventData))
	for _, event := range eventData {
		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", event.Name, err)
		}
		ids = append(ids, event.ID)
		fmt.Printf("  Created event: %s (%s)\n", event.Name, event.ID)
	}

	return ids, nil
}

// SeedSeats creates a 10-row by 12-seat grid per event with tiered pricing
func (s *Seeder) SeedSeats(eventIDs []uuid.UUID) error {
	rows := []string{"A", "B", "C", "D", "E", "F", "G", "H", "J", "K"}
	const seatsPerRow = 12

	for _, eventID := range eventIDs {
		grid := make([]seats.Seat, 0, len(rows)*seatsPerRow)
		for rowIdx, row := range rows {
			section := "ORCHESTRA"
			price := 120.00
			switch {
			case rowIdx >= 7:
				section = "BALCONY"
				price = 45.00
			case rowIdx >= 4:
				section = "MEZZANINE"
				price = 75.00
			}

			for num := 1; num <= seatsPerRow; num++ {
				grid = append(grid, seats.Seat{
					ID:         uuid.New(),
					EventID:    eventID,
					Row:        row,
					SeatNumber: strconv.Itoa(num),
					Section:    section,
					Price:      price,
					Status:     seats.StatusAvailable,
				})
			}
		}

		if err := s.db.PostgreSQL.CreateInBatches(grid, 100).Error; err != nil {
			return fmt.Errorf("failed to create seats for event %s: %w", eventID, err)
		}
		fmt.Printf("  Created %d seats for event %s\n", len(grid), eventID)
	}

	return nil
}
