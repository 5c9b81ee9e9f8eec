package operators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"andaman/internal/config"
	"andaman/internal/domain/models"
	"andaman/internal/seatmap"
	"andaman/internal/utils"
)

// GreenOcean wraps the Green Ocean Seaways API. IDs are numeric, and a
// seat-layout fetch needs the route ID on top of ferry and class.
type GreenOcean struct {
	cfg    config.OperatorEnv
	client *http.Client
}

func NewGreenOcean(cfg config.OperatorEnv) *GreenOcean {
	return &GreenOcean{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GreenOcean) Name() models.Operator { return models.OperatorGreenOcean }

// Green Ocean keys locations by numeric port ID rather than name.
var greenOceanPorts = map[string]int{
	"port-blair":    1,
	"havelock":      2,
	"neil":          3,
	"swaraj-dweep":  2,
	"shaheed-dweep": 3,
}

type greenOceanClass struct {
	ClassID       int     `json:"class_id"`
	ClassTitle    string  `json:"class_title"`
	SeatAvailable int     `json:"seat_available"`
	AdultFare     float64 `json:"adult_fare"`
	PortFee       float64 `json:"port_fee"`
}

type greenOceanRoute struct {
	RouteID       int               `json:"route_id"`
	FerryID       int               `json:"ferry_id"`
	FerryName     string            `json:"ferry_name"`
	DepartureTime string            `json:"departure_time"` // HH:MM
	ArrivalTime   string            `json:"arrival_time"`
	ClassDetails  []greenOceanClass `json:"class_details"`
}

type greenOceanSearchResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    []greenOceanRoute `json:"data"`
}

func (g *GreenOcean) Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error) {
	fromID, ok := greenOceanPorts[strings.ToLower(strings.TrimSpace(params.From))]
	if !ok {
		// Route outside Green Ocean's network: no results, not an error.
		return nil, nil
	}
	toID, ok := greenOceanPorts[strings.ToLower(strings.TrimSpace(params.To))]
	if !ok {
		return nil, nil
	}

	body := map[string]any{
		"from_id":     fromID,
		"to_id":       toID,
		"travel_date": params.Date,
		"adults":      params.Adults,
		"children":    params.Children,
		"infants":     params.Infants,
		"public_key":  g.cfg.APIKey,
	}

	var payload greenOceanSearchResponse
	if err := g.post(ctx, "/route-details", body, &payload); err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.Status, "success") {
		return nil, fmt.Errorf("greenocean: %s", nonEmpty(payload.Message, "route search rejected"))
	}

	results := make([]models.UnifiedFerryResult, 0, len(payload.Data))
	for _, route := range payload.Data {
		if route.FerryID == 0 {
			continue
		}
		results = append(results, g.mapRoute(params, route))
	}
	return results, nil
}

func (g *GreenOcean) mapRoute(params models.SearchParams, route greenOceanRoute) models.UnifiedFerryResult {
	classes := make([]models.FerryClass, 0, len(route.ClassDetails))
	totalSeats, minFare, portFee := 0, 0.0, 0.0
	for _, c := range route.ClassDetails {
		classes = append(classes, models.FerryClass{
			ID:             strconv.Itoa(c.ClassID),
			Name:           c.ClassTitle,
			Price:          c.AdultFare,
			AvailableSeats: c.SeatAvailable,
			Amenities:      []string{"AC"},
		})
		totalSeats += c.SeatAvailable
		if minFare == 0 || (c.AdultFare > 0 && c.AdultFare < minFare) {
			minFare = c.AdultFare
			portFee = c.PortFee
		}
	}

	raw, _ := json.Marshal(route)
	return models.UnifiedFerryResult{
		ID:              fmt.Sprintf("greenocean-%d-%d", route.FerryID, route.RouteID),
		Operator:        models.OperatorGreenOcean,
		OperatorFerryID: models.OperatorRef{Operator: models.OperatorGreenOcean, RawID: strconv.Itoa(route.FerryID)},
		FerryName:       route.FerryName,
		Route: models.Route{
			From: models.RoutePoint{Name: utils.TitleFromSlug(params.From), Code: params.From},
			To:   models.RoutePoint{Name: utils.TitleFromSlug(params.To), Code: params.To},
		},
		Schedule: models.Schedule{
			DepartureTime: route.DepartureTime,
			ArrivalTime:   route.ArrivalTime,
			Duration:      utils.Duration(route.DepartureTime, route.ArrivalTime),
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

type greenOceanLayoutResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Seats []seatmap.GreenOceanSeat `json:"layout"`
	} `json:"data"`
}

func (g *GreenOcean) SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error) {
	if strings.TrimSpace(req.RouteID) == "" {
		return models.SeatLayout{}, fmt.Errorf("greenocean seat layout requires routeId")
	}
	routeID, err := strconv.Atoi(req.RouteID)
	if err != nil {
		return models.SeatLayout{}, fmt.Errorf("greenocean routeId must be numeric: %q", req.RouteID)
	}
	ferryID, err := strconv.Atoi(req.FerryID)
	if err != nil {
		return models.SeatLayout{}, fmt.Errorf("greenocean ferryId must be numeric: %q", req.FerryID)
	}
	classID, err := strconv.Atoi(req.ClassID)
	if err != nil {
		return models.SeatLayout{}, fmt.Errorf("greenocean classId must be numeric: %q", req.ClassID)
	}

	body := map[string]any{
		"route_id":    routeID,
		"ferry_id":    ferryID,
		"class_id":    classID,
		"travel_date": req.TravelDate,
		"public_key":  g.cfg.APIKey,
	}

	var payload greenOceanLayoutResponse
	if err := g.post(ctx, "/seat-layout", body, &payload); err != nil {
		return models.SeatLayout{}, err
	}
	if !strings.EqualFold(payload.Status, "success") {
		return models.SeatLayout{}, fmt.Errorf("greenocean: %s", nonEmpty(payload.Message, "seat layout rejected"))
	}
	return seatmap.MapGreenOcean(req.FerryID, req.ClassID, payload.Data.Seats)
}

// TicketPDF is unsupported: Green Ocean does not expose a re-download
// endpoint for issued tickets.
func (g *GreenOcean) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	return nil, ErrTicketRetrievalUnsupported
}

func (g *GreenOcean) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("greenocean request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(models.OperatorGreenOcean, res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("greenocean response malformed: %w", err)
	}
	return nil
}
