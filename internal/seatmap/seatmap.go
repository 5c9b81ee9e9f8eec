// Package seatmap normalizes operator-specific seat layout payloads
// into the uniform Seat model. All functions are pure: transforming the
// same raw payload twice yields identical output.
package seatmap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"andaman/internal/domain/models"
)

// SealinkSeat mirrors one seat in Sealink's layout response. Seat
// numbers (and hence IDs) are strings on this operator.
type SealinkSeat struct {
	Number    string `json:"number"`
	Status    string `json:"status"` // "", "B", "H"
	Tier      string `json:"tier"`
	IsPremium bool   `json:"isPremium"`
}

// GreenOceanSeat mirrors one seat in Green Ocean's layout response.
type GreenOceanSeat struct {
	SeatNo        string  `json:"seat_no"`
	SeatNumbering string  `json:"seat_numbering"`
	BookingStatus int     `json:"booking_status"` // 0 free, 1 booked, 2 blocked, 3 hold
	Fare          float64 `json:"fare"`
	Handicapped   int     `json:"handicapped"`
}

// MapSealink converts a Sealink seat array into the normalized layout.
func MapSealink(ferryID, classID string, raw []SealinkSeat) (models.SeatLayout, error) {
	if raw == nil {
		return models.SeatLayout{}, fmt.Errorf("sealink layout missing seats array")
	}
	seats := make([]models.Seat, 0, len(raw))
	for _, rs := range raw {
		num := strings.ToUpper(strings.TrimSpace(rs.Number))
		if num == "" {
			continue
		}
		row, col := splitSeatNumber(num)
		seats = append(seats, models.Seat{
			ID:            num,
			Number:        num,
			DisplayNumber: displayNumber(num),
			Status:        sealinkStatus(rs.Status),
			Type:          inferSeatType(num),
			Position:      models.SeatPosition{Row: row, Column: col},
			IsPremium:     rs.IsPremium,
			Tier:          strings.TrimSpace(rs.Tier),
		})
	}
	return finish(models.OperatorSealink, ferryID, classID, seats)
}

// MapGreenOcean converts a Green Ocean seat array into the normalized
// layout. Seat fares are per-seat on this operator.
func MapGreenOcean(ferryID, classID string, raw []GreenOceanSeat) (models.SeatLayout, error) {
	if raw == nil {
		return models.SeatLayout{}, fmt.Errorf("greenocean layout missing seats array")
	}
	seats := make([]models.Seat, 0, len(raw))
	for _, rs := range raw {
		num := strings.ToUpper(strings.TrimSpace(rs.SeatNumbering))
		if num == "" {
			num = strings.ToUpper(strings.TrimSpace(rs.SeatNo))
		}
		if num == "" {
			continue
		}
		row, col := splitSeatNumber(num)
		seats = append(seats, models.Seat{
			ID:            strings.TrimSpace(rs.SeatNo),
			Number:        num,
			DisplayNumber: displayNumber(num),
			Status:        greenOceanStatus(rs.BookingStatus),
			Type:          inferSeatType(num),
			Position:      models.SeatPosition{Row: row, Column: col},
			Price:         rs.Fare,
			IsAccessible:  rs.Handicapped == 1,
		})
	}
	return finish(models.OperatorGreenOcean, ferryID, classID, seats)
}

func finish(op models.Operator, ferryID, classID string, seats []models.Seat) (models.SeatLayout, error) {
	sort.SliceStable(seats, func(i, j int) bool {
		if seats[i].Position.Row != seats[j].Position.Row {
			return seats[i].Position.Row < seats[j].Position.Row
		}
		return seats[i].Position.Column < seats[j].Position.Column
	})
	rows, cols := 0, 0
	for _, s := range seats {
		if s.Position.Row > rows {
			rows = s.Position.Row
		}
		if s.Position.Column > cols {
			cols = s.Position.Column
		}
	}
	return models.SeatLayout{
		Operator: op,
		FerryID:  ferryID,
		ClassID:  classID,
		Rows:     rows,
		Columns:  cols,
		Seats:    seats,
	}, nil
}

func sealinkStatus(s string) models.SeatStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A", "AVAILABLE":
		return models.SeatAvailable
	case "B", "BOOKED":
		return models.SeatBooked
	case "H", "HOLD":
		return models.SeatTemporarilyBlocked
	default:
		return models.SeatBlocked
	}
}

func greenOceanStatus(code int) models.SeatStatus {
	switch code {
	case 0:
		return models.SeatAvailable
	case 1:
		return models.SeatBooked
	case 3:
		return models.SeatTemporarilyBlocked
	default:
		return models.SeatBlocked
	}
}

// inferSeatType guesses window/aisle/middle from the trailing letter of
// the seat number, assuming a four-abreast A..D arrangement. This is a
// provisional fallback, not a verified deck plan; operators do not send
// positional data. TODO: replace with per-vessel seat maps once the
// operators expose them.
func inferSeatType(number string) models.SeatType {
	if number == "" {
		return models.SeatMiddle
	}
	last := number[len(number)-1]
	switch last {
	case 'A', 'D', 'F':
		return models.SeatWindow
	case 'B', 'E':
		return models.SeatMiddle
	case 'C':
		return models.SeatAisle
	default:
		return models.SeatMiddle
	}
}

// splitSeatNumber parses "12C" into row 12, column 3 (1-based letter
// index). Pure numeric seat numbers land in column 0.
func splitSeatNumber(num string) (row, col int) {
	i := 0
	for i < len(num) && num[i] >= '0' && num[i] <= '9' {
		i++
	}
	row, _ = strconv.Atoi(num[:i])
	if i < len(num) {
		c := num[i]
		if c >= 'A' && c <= 'Z' {
			col = int(c-'A') + 1
		}
	}
	return row, col
}

// displayNumber strips leading zeros for UI rendering: "05A" -> "5A".
func displayNumber(num string) string {
	trimmed := strings.TrimLeft(num, "0")
	if trimmed == "" {
		return num
	}
	return trimmed
}
