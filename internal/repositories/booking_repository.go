package repositories

import (
	"database/sql"
	"strings"

	intconfig "andaman/internal/config"
	"andaman/internal/domain"
	"andaman/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetByPNR looks a booking up by our confirmation number or by the
// operator-issued PNR, whichever the caller has.
func (r BookingRepository) GetByPNR(pnr string) (models.Booking, error) {
	pnr = strings.ToUpper(strings.TrimSpace(pnr))
	if pnr == "" {
		return models.Booking{}, domain.ValidationError{Field: "pnr", Msg: "pnr is required"}
	}

	query := `
		SELECT id,
		       confirmation_number,
		       COALESCE(provider_pnr,''),
		       operator,
		       COALESCE(ferry_name,''),
		       route_from,
		       route_to,
		       travel_date,
		       COALESCE(departure_time,''),
		       COALESCE(class_name,''),
		       COALESCE(seat_codes,''),
		       COALESCE(lead_passenger,''),
		       COALESCE(lead_phone,''),
		       passenger_count,
		       total_amount,
		       payment_state,
		       COALESCE(merchant_order_id,''),
		       COALESCE(pdf_url,''),
		       created_at,
		       updated_at
		FROM bookings
		WHERE UPPER(confirmation_number)=? OR UPPER(provider_pnr)=?
		LIMIT 1`

	var b models.Booking
	err := r.db().QueryRow(query, pnr, pnr).Scan(
		&b.ID,
		&b.ConfirmationNumber,
		&b.ProviderPNR,
		&b.Operator,
		&b.FerryName,
		&b.RouteFrom,
		&b.RouteTo,
		&b.TravelDate,
		&b.DepartureTime,
		&b.ClassName,
		&b.SeatCodes,
		&b.LeadPassenger,
		&b.LeadPhone,
		&b.PassengerCount,
		&b.TotalAmount,
		&b.PaymentState,
		&b.MerchantOrderID,
		&b.PDFURL,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	return b, nil
}

// GetByMerchantOrderID resolves a booking from a payment gateway order
// reference (callback and status-check paths).
func (r BookingRepository) GetByMerchantOrderID(orderID string) (models.Booking, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return models.Booking{}, domain.ValidationError{Field: "merchantOrderId", Msg: "order id is required"}
	}

	query := `
		SELECT id,
		       confirmation_number,
		       COALESCE(provider_pnr,''),
		       operator,
		       total_amount,
		       payment_state,
		       COALESCE(merchant_order_id,''),
		       COALESCE(pdf_url,'')
		FROM bookings
		WHERE merchant_order_id=?
		LIMIT 1`

	var b models.Booking
	err := r.db().QueryRow(query, orderID).Scan(
		&b.ID,
		&b.ConfirmationNumber,
		&b.ProviderPNR,
		&b.Operator,
		&b.TotalAmount,
		&b.PaymentState,
		&b.MerchantOrderID,
		&b.PDFURL,
	)
	if err == sql.ErrNoRows {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return models.Booking{}, domain.InternalError{Err: err}
	}
	return b, nil
}

// Create inserts a booking row and returns its ID.
func (r BookingRepository) Create(b models.Booking) (int64, error) {
	stmt := `
		INSERT INTO bookings
			(confirmation_number, provider_pnr, operator, ferry_name,
			 route_from, route_to, travel_date, departure_time,
			 class_name, seat_codes, lead_passenger, lead_phone,
			 passenger_count, total_amount, payment_state,
			 merchant_order_id, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`

	res, err := r.db().Exec(stmt,
		b.ConfirmationNumber,
		b.ProviderPNR,
		string(b.Operator),
		b.FerryName,
		b.RouteFrom,
		b.RouteTo,
		b.TravelDate,
		b.DepartureTime,
		b.ClassName,
		b.SeatCodes,
		b.LeadPassenger,
		b.LeadPhone,
		b.PassengerCount,
		b.TotalAmount,
		string(b.PaymentState),
		b.MerchantOrderID,
	)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListRecent returns the newest bookings for the admin surface.
func (r BookingRepository) ListRecent(limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id,
		       confirmation_number,
		       COALESCE(provider_pnr,''),
		       operator,
		       COALESCE(ferry_name,''),
		       route_from,
		       route_to,
		       travel_date,
		       COALESCE(departure_time,''),
		       COALESCE(class_name,''),
		       COALESCE(seat_codes,''),
		       COALESCE(lead_passenger,''),
		       COALESCE(lead_phone,''),
		       passenger_count,
		       total_amount,
		       payment_state,
		       COALESCE(merchant_order_id,''),
		       COALESCE(pdf_url,''),
		       created_at,
		       updated_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db().Query(query, limit)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ConfirmationNumber,
			&b.ProviderPNR,
			&b.Operator,
			&b.FerryName,
			&b.RouteFrom,
			&b.RouteTo,
			&b.TravelDate,
			&b.DepartureTime,
			&b.ClassName,
			&b.SeatCodes,
			&b.LeadPassenger,
			&b.LeadPhone,
			&b.PassengerCount,
			&b.TotalAmount,
			&b.PaymentState,
			&b.MerchantOrderID,
			&b.PDFURL,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdatePDFURL persists a lazily generated ticket URL.
func (r BookingRepository) UpdatePDFURL(id int64, url string) error {
	_, err := r.db().Exec(`UPDATE bookings SET pdf_url=?, updated_at=NOW() WHERE id=?`, url, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// UpdatePaymentState moves a booking through the payment lifecycle,
// optionally attaching the operator PNR issued on success.
func (r BookingRepository) UpdatePaymentState(merchantOrderID string, state models.PaymentState, providerPNR string) error {
	merchantOrderID = strings.TrimSpace(merchantOrderID)
	if merchantOrderID == "" {
		return domain.ValidationError{Field: "merchantOrderId", Msg: "order id is required"}
	}

	var err error
	if strings.TrimSpace(providerPNR) != "" {
		_, err = r.db().Exec(
			`UPDATE bookings SET payment_state=?, provider_pnr=?, updated_at=NOW() WHERE merchant_order_id=?`,
			string(state), strings.ToUpper(strings.TrimSpace(providerPNR)), merchantOrderID,
		)
	} else {
		_, err = r.db().Exec(
			`UPDATE bookings SET payment_state=?, updated_at=NOW() WHERE merchant_order_id=?`,
			string(state), merchantOrderID,
		)
	}
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}
