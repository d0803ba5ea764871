package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service and dispatcher.
type RepositoryPort interface {
	Create(ctx context.Context, endpoint Endpoint) (Endpoint, error)
	Get(ctx context.Context, teamID, endpointID int64) (Endpoint, error)
	List(ctx context.Context, teamID int64) ([]Endpoint, error)
	ListActiveForEvent(ctx context.Context, teamID int64, event string) ([]Endpoint, error)
	Update(ctx context.Context, endpoint Endpoint) (Endpoint, error)
	Delete(ctx context.Context, teamID, endpointID int64) error
}

// Service manages webhook endpoint registrations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers an endpoint and assigns its signing secret. The secret is
// returned once; it is not exposed on later reads.
func (s *Service) Create(ctx context.Context, teamID int64, rawURL string, events []string) (Endpoint, string, error) {
	endpoint, err := buildEndpoint(teamID, rawURL, events)
	if err != nil {
		return Endpoint{}, "", err
	}
	secret := uuid.NewString()
	endpoint.Secret = secret
	endpoint.Active = true
	created, err := s.repo.Create(ctx, endpoint)
	if err != nil {
		return Endpoint{}, "", err
	}
	return created, secret, nil
}

// Get loads one endpoint.
func (s *Service) Get(ctx context.Context, teamID, endpointID int64) (Endpoint, error) {
	return s.repo.Get(ctx, teamID, endpointID)
}

// List lists the team's endpoints.
func (s *Service) List(ctx context.Context, teamID int64) ([]Endpoint, error) {
	return s.repo.List(ctx, teamID)
}

// Update changes URL, subscriptions or the active flag; the secret is fixed
// at creation.
func (s *Service) Update(ctx context.Context, teamID, endpointID int64, rawURL string, events []string, active bool) (Endpoint, error) {
	endpoint, err := buildEndpoint(teamID, rawURL, events)
	if err != nil {
		return Endpoint{}, err
	}
	endpoint.ID = endpointID
	endpoint.Active = active
	return s.repo.Update(ctx, endpoint)
}

// Delete removes an endpoint.
func (s *Service) Delete(ctx context.Context, teamID, endpointID int64) error {
	return s.repo.Delete(ctx, teamID, endpointID)
}

func buildEndpoint(teamID int64, rawURL string, events []string) (Endpoint, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: url must be http or https", httpx.ErrValidation)
	}
	cleaned := make([]string, 0, len(events))
	for _, event := range events {
		event = strings.TrimSpace(event)
		if event != "" {
			cleaned = append(cleaned, event)
		}
	}
	if len(cleaned) == 0 {
		return Endpoint{}, fmt.Errorf("%w: at least one event is required", httpx.ErrValidation)
	}
	return Endpoint{TeamID: teamID, URL: parsed.String(), Events: cleaned}, nil
}

// DelivererPort abstracts the HTTP delivery for the dispatcher.
type DelivererPort interface {
	Deliver(ctx context.Context, endpoint Endpoint, payload []byte) error
}

// Dispatcher fans one ledger event out to every subscribed endpoint. It runs
// inside the job worker; a failed endpoint fails the task so the queue
// retries, and never touches the ledger.
type Dispatcher struct {
	repo      RepositoryPort
	deliverer DelivererPort
	logger    *slog.Logger
}

// NewDispatcher builds Dispatcher.
func NewDispatcher(repo RepositoryPort, deliverer DelivererPort, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, deliverer: deliverer, logger: logger}
}

// Dispatch delivers the event to every active matching endpoint.
func (d *Dispatcher) Dispatch(ctx context.Context, teamID int64, event string, payload map[string]any) error {
	endpoints, err := d.repo.ListActiveForEvent(ctx, teamID, event)
	if err != nil {
		return fmt.Errorf("webhooks: load endpoints: %w", err)
	}
	if len(endpoints) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	if err != nil {
		return fmt.Errorf("webhooks: encode payload: %w", err)
	}

	var firstErr error
	for _, endpoint := range endpoints {
		if err := d.deliverer.Deliver(ctx, endpoint, body); err != nil {
			if d.logger != nil {
				d.logger.Warn("webhook delivery failed",
					slog.String("url", endpoint.URL),
					slog.String("event", event),
					slog.Any("error", err))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if d.logger != nil {
			d.logger.Info("webhook delivered",
				slog.String("url", endpoint.URL),
				slog.String("event", event))
		}
	}
	return firstErr
}
