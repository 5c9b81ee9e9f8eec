package operators

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"andaman/internal/config"
	"andaman/internal/domain/models"
	"andaman/internal/utils"
)

// Makruzz wraps the Makruzz booking API. IDs are numeric upstream, fares
// arrive as numeric strings, and seats are auto-assigned: there is no
// seat selection on this operator, but ticket PDFs can be re-downloaded
// after booking.
type Makruzz struct {
	cfg    config.OperatorEnv
	client *http.Client
}

func NewMakruzz(cfg config.OperatorEnv) *Makruzz {
	return &Makruzz{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *Makruzz) Name() models.Operator { return models.OperatorMakruzz }

type makruzzEnvelope struct {
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
	Code json.Number     `json:"code"`
}

type makruzzSchedule struct {
	ID             json.Number `json:"id"`
	ShipTitle      string      `json:"ship_title"`
	DepartureTime  string      `json:"departure_time"` // HH:MM:SS
	ArrivalTime    string      `json:"arrival_time"`
	FromLocation   string      `json:"source_location"`
	ToLocation     string      `json:"destination_location"`
	Seat           json.Number `json:"seat"`
	ShipClassID    json.Number `json:"ship_class_id"`
	ShipClassTitle string      `json:"ship_class_title"`
	TotalFare      json.Number `json:"total_fare"`
	CGST           json.Number `json:"cgst"`
	SGST           json.Number `json:"sgst"`
}

func (m *Makruzz) Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error) {
	body := map[string]any{
		"data": map[string]any{
			"trip_type":       "single_trip",
			"from_location":   utils.TitleFromSlug(params.From),
			"to_location":     utils.TitleFromSlug(params.To),
			"travel_date":     params.Date,
			"no_of_passenger": params.TotalPassengers(),
		},
	}

	var env makruzzEnvelope
	if err := m.post(ctx, "/schedule_search", body, &env); err != nil {
		return nil, err
	}
	if code, _ := env.Code.Int64(); code != 200 {
		return nil, fmt.Errorf("makruzz: %s", nonEmpty(env.Msg, "schedule search rejected"))
	}

	var schedules []makruzzSchedule
	if err := json.Unmarshal(env.Data, &schedules); err != nil {
		return nil, fmt.Errorf("makruzz response malformed: %w", err)
	}

	results := make([]models.UnifiedFerryResult, 0, len(schedules))
	for _, sch := range schedules {
		if sch.ID.String() == "" {
			continue
		}
		results = append(results, m.mapSchedule(params, sch))
	}
	return results, nil
}

func (m *Makruzz) mapSchedule(params models.SearchParams, sch makruzzSchedule) models.UnifiedFerryResult {
	fare := numberFloat(sch.TotalFare)
	taxes := numberFloat(sch.CGST) + numberFloat(sch.SGST)
	seats := int(numberInt(sch.Seat))

	classID := sch.ShipClassID.String()
	raw, _ := json.Marshal(sch)
	return models.UnifiedFerryResult{
		ID:              fmt.Sprintf("makruzz-%s-%s", sch.ID.String(), classID),
		Operator:        models.OperatorMakruzz,
		OperatorFerryID: models.OperatorRef{Operator: models.OperatorMakruzz, RawID: sch.ID.String()},
		FerryName:       sch.ShipTitle,
		Route: models.Route{
			From: models.RoutePoint{Name: nonEmpty(sch.FromLocation, utils.TitleFromSlug(params.From)), Code: params.From},
			To:   models.RoutePoint{Name: nonEmpty(sch.ToLocation, utils.TitleFromSlug(params.To)), Code: params.To},
		},
		Schedule: models.Schedule{
			DepartureTime: hhmm(sch.DepartureTime),
			ArrivalTime:   hhmm(sch.ArrivalTime),
			Duration:      utils.Duration(hhmm(sch.DepartureTime), hhmm(sch.ArrivalTime)),
			Date:          params.Date,
		},
		Classes: []models.FerryClass{{
			ID:             classID,
			Name:           sch.ShipClassTitle,
			Price:          fare,
			AvailableSeats: seats,
			Amenities:      []string{"AC"},
		}},
		Availability: models.Availability{
			TotalSeats:     seats,
			AvailableSeats: seats,
			LastUpdated:    utils.NowUTC(),
		},
		Pricing: models.Pricing{
			BaseFare: fare - taxes,
			Taxes:    taxes,
			Total:    fare,
			Currency: "INR",
		},
		Features: models.Features{
			SupportsSeatSelection:   false,
			SupportsAutoAssignment:  true,
			SupportsTicketRetrieval: true,
		},
		OperatorData: raw,
	}
}

// SeatLayout always fails: Makruzz auto-assigns seats at booking time.
func (m *Makruzz) SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error) {
	return models.SeatLayout{}, ErrSeatSelectionUnsupported
}

type makruzzTicketResponse struct {
	Data struct {
		PDFBase64 string `json:"pdf_base64"`
	} `json:"data"`
	Msg  string      `json:"msg"`
	Code json.Number `json:"code"`
}

// TicketPDF re-downloads a booked ticket by PNR.
func (m *Makruzz) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	body := map[string]any{
		"data": map[string]any{"pnr": strings.TrimSpace(pnr)},
	}

	var payload makruzzTicketResponse
	if err := m.post(ctx, "/download_ticket_pdf", body, &payload); err != nil {
		return nil, err
	}
	if code, _ := payload.Code.Int64(); code != 200 {
		return nil, fmt.Errorf("makruzz: %s", nonEmpty(payload.Msg, "ticket download rejected"))
	}
	pdf, err := base64.StdEncoding.DecodeString(payload.Data.PDFBase64)
	if err != nil || len(pdf) == 0 {
		return nil, fmt.Errorf("makruzz ticket payload malformed")
	}
	return pdf, nil
}

func (m *Makruzz) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Mak_Authorization", m.cfg.APIKey)

	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("makruzz request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(models.OperatorMakruzz, res)
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("makruzz response malformed: %w", err)
	}
	return nil
}

func numberFloat(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}

func numberInt(n json.Number) int64 {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, _ := n.Float64()
	return int64(f)
}

func hhmm(t string) string {
	t = strings.TrimSpace(t)
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
