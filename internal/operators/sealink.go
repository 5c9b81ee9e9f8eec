package operators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"andaman/internal/config"
	"andaman/internal/domain/models"
	"andaman/internal/seatmap"
	"andaman/internal/utils"
)

// Sealink wraps the Sealink/Nautika trip API. Trip and seat IDs are
// strings on this operator and must stay strings end to end.
type Sealink struct {
	cfg    config.OperatorEnv
	client *http.Client
}

func NewSealink(cfg config.OperatorEnv) *Sealink {
	return &Sealink{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *Sealink) Name() models.Operator { return models.OperatorSealink }

type sealinkSearchRequest struct {
	Date  string `json:"date"`
	From  string `json:"from"`
	To    string `json:"to"`
	Token string `json:"token"`
}

type sealinkTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t sealinkTime) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type sealinkClass struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Fare      float64 `json:"fare"`
	PortFee   float64 `json:"portFee"`
	Available int     `json:"available"`
	Tier      string  `json:"tier"`
}

type sealinkTrip struct {
	ID         string         `json:"id"`
	TripNumber string         `json:"tripNumber"`
	VesselName string         `json:"vesselName"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	DTime      sealinkTime    `json:"dTime"`
	ATime      sealinkTime    `json:"aTime"`
	Classes    []sealinkClass `json:"classes"`
}

type sealinkSearchResponse struct {
	Err  string        `json:"err"`
	Data []sealinkTrip `json:"data"`
}

func (s *Sealink) Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error) {
	body := sealinkSearchRequest{
		Date:  params.Date,
		From:  utils.TitleFromSlug(params.From),
		To:    utils.TitleFromSlug(params.To),
		Token: s.cfg.APIKey,
	}

	var payload sealinkSearchResponse
	if err := s.post(ctx, "/getTripData", body, &payload); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Err) != "" {
		return nil, fmt.Errorf("sealink: %s", payload.Err)
	}

	results := make([]models.UnifiedFerryResult, 0, len(payload.Data))
	for _, trip := range payload.Data {
		if strings.TrimSpace(trip.ID) == "" {
			continue
		}
		results = append(results, s.mapTrip(params, trip))
	}
	return results, nil
}

func (s *Sealink) mapTrip(params models.SearchParams, trip sealinkTrip) models.UnifiedFerryResult {
	classes := make([]models.FerryClass, 0, len(trip.Classes))
	totalSeats, minFare, portFee := 0, 0.0, 0.0
	for _, c := range trip.Classes {
		classes = append(classes, models.FerryClass{
			ID:             c.ID,
			Name:           c.Name,
			Price:          c.Fare,
			AvailableSeats: c.Available,
			Amenities:      sealinkAmenities(c.Tier),
		})
		totalSeats += c.Available
		if minFare == 0 || (c.Fare > 0 && c.Fare < minFare) {
			minFare = c.Fare
			portFee = c.PortFee
		}
	}

	raw, _ := json.Marshal(trip)
	return models.UnifiedFerryResult{
		ID:              fmt.Sprintf("sealink-%s", trip.ID),
		Operator:        models.OperatorSealink,
		OperatorFerryID: models.OperatorRef{Operator: models.OperatorSealink, RawID: trip.ID},
		FerryName:       trip.VesselName,
		Route: models.Route{
			From: models.RoutePoint{Name: utils.TitleFromSlug(params.From), Code: params.From},
			To:   models.RoutePoint{Name: utils.TitleFromSlug(params.To), Code: params.To},
		},
		Schedule: models.Schedule{
			DepartureTime: trip.DTime.HHMM(),
			ArrivalTime:   trip.ATime.HHMM(),
			Duration:      utils.Duration(trip.DTime.HHMM(), trip.ATime.HHMM()),
			Date:          params.Date,
		},
		Classes: classes,
		Availability: models.Availability{
			TotalSeats:     totalSeats,
			AvailableSeats: totalSeats,
			LastUpdated:    utils.NowUTC(),
		},
		Pricing: models.Pricing{
			BaseFare: minFare,
			PortFee:  portFee,
			Total:    minFare + portFee,
			Currency: "INR",
		},
		Features: models.Features{
			SupportsSeatSelection:  true,
			SupportsAutoAssignment: false,
		},
		OperatorData: raw,
	}
}

type sealinkLayoutRequest struct {
	TripID  string `json:"tripId"`
	ClassID string `json:"classId"`
	Date    string `json:"date"`
	Token   string `json:"token"`
}

type sealinkLayoutResponse struct {
	Err  string `json:"err"`
	Data struct {
		Seats []seatmap.SealinkSeat `json:"seats"`
	} `json:"data"`
}

func (s *Sealink) SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error) {
	body := sealinkLayoutRequest{
		TripID:  req.FerryID,
		ClassID: req.ClassID,
		Date:    req.TravelDate,
		Token:   s.cfg.APIKey,
	}

	var payload sealinkLayoutResponse
	if err := s.post(ctx, "/getSeatLayout", body, &payload); err != nil {
		return models.SeatLayout{}, err
	}
	if strings.TrimSpace(payload.Err) != "" {
		return models.SeatLayout{}, fmt.Errorf("sealink: %s", payload.Err)
	}
	return seatmap.MapSealink(req.FerryID, req.ClassID, payload.Data.Seats)
}

// TicketPDF is unsupported: Sealink issues the PDF once at booking time
// and offers no retrieval endpoint.
func (s *Sealink) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	return nil, ErrTicketRetrievalUnsupported
}

func (s *Sealink) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sealink request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(models.OperatorSealink, res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("sealink response malformed: %w", err)
	}
	return nil
}

func sealinkAmenities(tier string) []string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "royal", "premium":
		return []string{"AC", "Recliner", "Complimentary Snacks"}
	default:
		return []string{"AC"}
	}
}
